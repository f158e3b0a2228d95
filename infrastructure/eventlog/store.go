package eventlog

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"depalletconsole/infrastructure/sqlite"
	"depalletconsole/models"
)

// SQLiteStore keeps entries in the log_entries table.
type SQLiteStore struct {
	db *sqlite.DB
}

func NewSQLiteStore(db *sqlite.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Insert(ctx context.Context, entry models.LogEntry) error {
	return s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&entry).Exec(ctx); err != nil {
			return fmt.Errorf("insert log entry %d: %w", entry.Seq, err)
		}
		return nil
	})
}

func (s *SQLiteStore) ListByOrder(ctx context.Context, orderID string) ([]models.LogEntry, error) {
	var entries []models.LogEntry
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&entries).
			Where("order_id = ?", orderID).
			OrderExpr("seq ASC").
			Scan(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("list log entries for order %s: %w", orderID, err)
	}
	return entries, nil
}

func (s *SQLiteStore) MaxSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COALESCE(MAX(seq), 0) FROM log_entries`).Scan(ctx, &seq)
	})
	if err != nil {
		return 0, fmt.Errorf("max log seq: %w", err)
	}
	return seq, nil
}
