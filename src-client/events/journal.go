package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventdesk/src-client/model"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Journal keeps a local history of every mutation sent to the backend and
// how it ended. A nil *Journal records nothing.
type Journal struct {
	db      *bun.DB
	observe func(write bool, latency time.Duration)
}

type JournalOption func(*Journal)

// WithDatabaseLatency reports the latency of every journal read and write.
func WithDatabaseLatency(fn func(write bool, latency time.Duration)) JournalOption {
	return func(j *Journal) { j.observe = fn }
}

func NewJournal(db *bun.DB, opts ...JournalOption) *Journal {
	j := &Journal{db: db}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *Journal) timed(write bool, start time.Time) {
	if j.observe != nil {
		j.observe(write, time.Since(start))
	}
}

// Begin stores a pending record. Failures are logged and never stop the
// mutation.
func (j *Journal) Begin(ctx context.Context, kind model.MutationKind, eventID, title string) *model.MutationRecord {
	if j == nil {
		return nil
	}
	record := &model.MutationRecord{
		ID:      uuid.NewString(),
		Kind:    kind,
		EventID: eventID,
		Title:   title,
	}
	defer j.timed(true, time.Now())
	if err := record.Insert(ctx, j.db); err != nil {
		slog.Warn("can't journal mutation", "kind", kind, "event", eventID, "error", err)
		return nil
	}
	return record
}

// Finish settles record with the outcome of its mutation.
func (j *Journal) Finish(ctx context.Context, record *model.MutationRecord, status model.MutationStatus, cause error) {
	if j == nil || record == nil {
		return
	}
	defer j.timed(true, time.Now())
	if err := record.Settle(ctx, j.db, status, cause); err != nil {
		slog.Warn("can't settle journaled mutation", "id", record.ID, "error", err)
	}
}

// Recent returns the latest records, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]model.MutationRecord, error) {
	if j == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	defer j.timed(false, time.Now())
	records := make([]model.MutationRecord, 0, limit)
	if err := j.db.NewSelect().
		Model(&records).
		OrderExpr("started_at DESC, rowid DESC").
		Limit(limit).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*Journal).Recent: %w", err)
	}
	return records, nil
}
