package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/domain/cart"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestSnapshotStore_Get(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewSnapshotStore(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"snapshot_key", "data", "updated_at"}).
		AddRow("cart:session:a", []byte(`[{"product_id":1}]`), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "cart_snapshots" WHERE snapshot_key = $1`)).
		WillReturnRows(rows)

	data, err := store.Get(ctx, "cart:session:a")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"product_id":1}]`, string(data))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "cart_snapshots"`)).
		WillReturnRows(sqlmock.NewRows([]string{"snapshot_key", "data", "updated_at"}))

	_, err = store.Get(ctx, "cart:session:missing")
	assert.ErrorIs(t, err, cart.ErrSnapshotNotFound)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "cart_snapshots"`)).
		WillReturnError(errors.New("connection reset"))

	_, err = store.Get(ctx, "cart:session:a")
	require.Error(t, err)
	assert.NotErrorIs(t, err, cart.ErrSnapshotNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotStore_PutUpserts(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewSnapshotStore(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "cart_snapshots" ("snapshot_key","data","updated_at") VALUES ($1,$2,$3) ON CONFLICT ("snapshot_key") DO UPDATE SET`)).
		WithArgs("cart:session:a", []byte(`[]`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Put(context.Background(), "cart:session:a", []byte(`[]`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotStore_DeleteIsHard(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewSnapshotStore(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "cart_snapshots" WHERE snapshot_key = $1`)).
		WithArgs("cart:session:a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "cart_snapshots" WHERE snapshot_key = $1`)).
		WithArgs("cart:session:a").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Delete(context.Background(), "cart:session:a"))
	require.NoError(t, store.Delete(context.Background(), "cart:session:a"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotStore_PurgeStale(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewSnapshotStore(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "cart_snapshots" WHERE updated_at < $1`)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.PurgeStale(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = store.PurgeStale(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_MarkReconciled(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	insert := regexp.QuoteMeta(`INSERT INTO "reconciled_sessions" ("session_id","reconciled_at") VALUES ($1,$2) ON CONFLICT DO NOTHING`)
	mock.ExpectExec(insert).WithArgs("cs_1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insert).WithArgs("cs_1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(insert).WithArgs("cs_2", sqlmock.AnyArg()).WillReturnError(errors.New("db down"))

	first, err := ledger.MarkReconciled(ctx, "cs_1")
	require.NoError(t, err)
	assert.True(t, first)

	first, err = ledger.MarkReconciled(ctx, "cs_1")
	require.NoError(t, err)
	assert.False(t, first)

	_, err = ledger.MarkReconciled(ctx, "cs_2")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_Reconciled(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	count := regexp.QuoteMeta(`SELECT count(*) FROM "reconciled_sessions" WHERE session_id = $1`)
	mock.ExpectQuery(count).WithArgs("cs_1:cart:session:a").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(count).WithArgs("cs_1:cart:session:b").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	done, err := ledger.Reconciled(ctx, "cs_1:cart:session:a")
	require.NoError(t, err)
	assert.True(t, done)

	done, err = ledger.Reconciled(ctx, "cs_1:cart:session:b")
	require.NoError(t, err)
	assert.False(t, done)

	assert.NoError(t, mock.ExpectationsWereMet())
}
