// internal/pkg/apierror/parse.go
package apierror

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// bodyRule extracts a message from a decoded error body. Rules are tried in
// order and the first non-empty message wins.
type bodyRule struct {
	name    string
	extract func(body map[string]any) string
}

var errorBodyRules = []bodyRule{
	{name: "error", extract: stringField("error")},
	{name: "message", extract: stringField("message")},
	{name: "detail", extract: stringField("detail")},
	{name: "mensaje", extract: stringField("mensaje")},
	{name: "field_errors", extract: fieldErrors},
}

// ParseServerError normalizes a non-2xx upstream response.
//
// A structured body yields a KindServerReported error with the most specific
// message available. A 5xx without a usable body is a transport failure; a
// 4xx without one falls back to a message built from the status code.
func ParseServerError(op string, status int, body []byte) *Error {
	if message, ok := MessageFromBody(body); ok {
		return ServerReported(op, status, message)
	}

	fallback := fmt.Sprintf("request failed with status %d", status)
	if text := http.StatusText(status); text != "" {
		fallback = fmt.Sprintf("request failed with status %d (%s)", status, text)
	}

	if status >= http.StatusInternalServerError {
		return &Error{Kind: KindTransport, Op: op, Status: status, Message: fallback}
	}
	return ServerReported(op, status, fallback)
}

// MessageFromBody applies the rule table to a raw JSON body
func MessageFromBody(body []byte) (string, bool) {
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil || len(decoded) == 0 {
		return "", false
	}

	for _, rule := range errorBodyRules {
		if message := rule.extract(decoded); message != "" {
			return message, true
		}
	}
	return "", false
}

func stringField(name string) func(map[string]any) string {
	return func(body map[string]any) string {
		switch v := body[name].(type) {
		case string:
			return strings.TrimSpace(v)
		case []any:
			return joinValues(v)
		}
		return ""
	}
}

// fieldErrors renders a {"field": ["msg", ...]} map as "field: msg, msg; other: msg"
func fieldErrors(body map[string]any) string {
	fields := make([]string, 0, len(body))
	for field := range body {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		var text string
		switch v := body[field].(type) {
		case string:
			text = v
		case []any:
			text = joinValues(v)
		default:
			continue
		}
		if text != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", field, text))
		}
	}
	return strings.Join(parts, "; ")
}

func joinValues(values []any) string {
	texts := make([]string, 0, len(values))
	for _, value := range values {
		if s, ok := value.(string); ok && s != "" {
			texts = append(texts, s)
		}
	}
	return strings.Join(texts, ", ")
}
