package eventlog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"depalletconsole/models"
)

// Store persists entries durably. Insert is called under the log's mutex so
// stored order equals append order.
type Store interface {
	Insert(ctx context.Context, entry models.LogEntry) error
	ListByOrder(ctx context.Context, orderID string) ([]models.LogEntry, error)
	MaxSeq(ctx context.Context) (int64, error)
}

// Log is the operator-facing, append-only event log. Recent entries are kept
// in a bounded ring; when a Store is set every entry is also persisted.
type Log struct {
	mu      sync.Mutex
	limit   int
	entries []models.LogEntry
	seq     int64
	store   Store
	now     func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithStore persists entries through store.
func WithStore(store Store) Option {
	return func(l *Log) { l.store = store }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// New creates a log that keeps at most limit entries in memory. A limit of 0
// keeps everything.
func New(limit int, opts ...Option) *Log {
	l := &Log{limit: limit, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Resume continues the sequence after the highest persisted entry.
func (l *Log) Resume(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	seq, err := l.store.MaxSeq(ctx)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq > l.seq {
		l.seq = seq
	}
	return nil
}

// Append records message. A failing store is logged and does not drop the
// in-memory entry.
func (l *Log) Append(ctx context.Context, orderID, message string) models.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	entry := models.LogEntry{
		Seq:       l.seq,
		Timestamp: l.now(),
		OrderID:   orderID,
		Message:   message,
	}
	l.entries = append(l.entries, entry)
	if l.limit > 0 && len(l.entries) > l.limit {
		l.entries = append(l.entries[:0:0], l.entries[len(l.entries)-l.limit:]...)
	}

	if l.store != nil {
		if err := l.store.Insert(context.WithoutCancel(ctx), entry); err != nil {
			slog.Error("persist log entry failed", slog.Int64("seq", entry.Seq), slog.String("order_id", orderID), slog.Any("err", err))
		}
	}
	return entry
}

// Entries returns a copy of the in-memory entries, oldest first.
func (l *Log) Entries() []models.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// EntriesForOrder returns every entry correlated with orderID. The store is
// preferred since the ring may have evicted old entries.
func (l *Log) EntriesForOrder(ctx context.Context, orderID string) ([]models.LogEntry, error) {
	if l.store != nil {
		return l.store.ListByOrder(ctx, orderID)
	}
	var out []models.LogEntry
	for _, e := range l.Entries() {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}
