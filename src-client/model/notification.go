package model

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// SentNotification remembers that the start of an event was announced.
// A rescheduled event gets a new StartsAt and is announced again.
type SentNotification struct {
	bun.BaseModel `bun:"table:notifications"`

	EventID  string `bun:"event_id,pk"`  // required
	StartsAt int64  `bun:"starts_at,pk"` // required
	SentAt   int64  `bun:"sent_at,notnull"`
}

// SentNotificationsSince returns the notifications of events starting at or
// after since, keyed by event ID and start.
func SentNotificationsSince(ctx context.Context, db bun.IDB, since time.Time) (map[SentNotification]bool, error) {
	rows := make([]SentNotification, 0)
	if err := db.NewSelect().
		Model(&rows).
		Where("starts_at >= ?", since.UTC().Unix()).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("SentNotificationsSince: %w", err)
	}
	sent := make(map[SentNotification]bool, len(rows))
	for _, row := range rows {
		sent[SentNotification{EventID: row.EventID, StartsAt: row.StartsAt}] = true
	}
	return sent, nil
}

func InsertSentNotifications(ctx context.Context, db bun.IDB, rows []SentNotification) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC().Unix()
	for i := range rows {
		if rows[i].SentAt == 0 {
			rows[i].SentAt = now
		}
	}
	if _, err := db.NewInsert().
		Model(&rows).
		On("CONFLICT DO NOTHING").
		Exec(ctx); err != nil {
		return fmt.Errorf("InsertSentNotifications: %w", err)
	}
	return nil
}
