package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// changeMessage is published on the change channel after every snapshot write
type changeMessage struct {
	Key      string `json:"key"`
	WriterID string `json:"writer_id"`
}

// ChangeBus announces cart snapshot writes to the other storefront processes
// over Redis pub/sub and delivers theirs to this one.
type ChangeBus struct {
	client   *Client
	channel  string
	writerID string
	log      *logrus.Entry
}

// NewChangeBus creates a bus with a fresh writer id for this process
func NewChangeBus(client *Client, channel string, logger *logrus.Logger) *ChangeBus {
	writerID := uuid.NewString()
	return &ChangeBus{
		client:   client,
		channel:  channel,
		writerID: writerID,
		log: logger.WithFields(logrus.Fields{
			"component": "cart_change_bus",
			"writer_id": writerID,
		}),
	}
}

// WriterID identifies this process on the channel
func (b *ChangeBus) WriterID() string {
	return b.writerID
}

// Notify publishes that key was written by this process
func (b *ChangeBus) Notify(ctx context.Context, key string) error {
	payload, err := json.Marshal(changeMessage{Key: key, WriterID: b.writerID})
	if err != nil {
		return fmt.Errorf("failed to encode cart change: %w", err)
	}
	if err := b.client.Redis.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish cart change: %w", err)
	}
	return nil
}

// Start subscribes to the channel and calls handle for every key written by
// another process. It returns once the subscription is confirmed; the
// returned function stops delivery.
func (b *ChangeBus) Start(ctx context.Context, handle func(ctx context.Context, key string)) (func(), error) {
	pubsub := b.client.Redis.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var change changeMessage
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					b.log.WithError(err).Warn("ignoring malformed cart change")
					continue
				}
				if change.WriterID == b.writerID {
					continue
				}
				handle(ctx, change.Key)
			}
		}
	}()

	b.log.WithField("channel", b.channel).Info("listening for cart changes")

	return func() {
		cancel()
		_ = pubsub.Close()
		<-done
	}, nil
}
