package model

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type MutationKind string

const (
	MutationKindCreate MutationKind = "create"
	MutationKindUpdate MutationKind = "update"
	MutationKindDelete MutationKind = "delete"
)

type MutationStatus string

const (
	MutationStatusPending    MutationStatus = "pending"
	MutationStatusSuccess    MutationStatus = "success"
	MutationStatusRolledBack MutationStatus = "rolled_back"
	MutationStatusFailed     MutationStatus = "failed"
)

// MutationRecord is one row of the local mutation journal.
type MutationRecord struct {
	bun.BaseModel `bun:"table:mutations"`

	ID        string         `bun:"id,pk"`          // required
	Kind      MutationKind   `bun:"kind,notnull"`   // required
	EventID   string         `bun:"event_id"`       // empty for a create that never got an ID
	Title     string         `bun:"title"`          // title submitted with the mutation
	Status    MutationStatus `bun:"status,notnull"` // required
	Error     string         `bun:"error"`
	StartedAt int64          `bun:"started_at,notnull"` // required
	SettledAt int64          `bun:"settled_at"`
}

func (m *MutationRecord) Insert(ctx context.Context, db bun.IDB) error {
	switch {
	case m.ID == "":
		return fmt.Errorf("(*MutationRecord).Insert: id is blank")
	case m.Kind == "":
		return fmt.Errorf("(*MutationRecord).Insert: kind is blank")
	}
	if m.Status == "" {
		m.Status = MutationStatusPending
	}
	if m.StartedAt == 0 {
		m.StartedAt = time.Now().UTC().Unix()
	}
	if _, err := db.NewInsert().Model(m).Exec(ctx); err != nil {
		return fmt.Errorf("(*MutationRecord).Insert: %w", err)
	}
	return nil
}

// Settle stores the outcome of the mutation.
func (m *MutationRecord) Settle(ctx context.Context, db bun.IDB, status MutationStatus, cause error) error {
	m.Status = status
	m.Error = ""
	if cause != nil {
		m.Error = cause.Error()
	}
	m.SettledAt = time.Now().UTC().Unix()
	if _, err := db.NewUpdate().
		Model(m).
		Column("event_id", "status", "error", "settled_at").
		WherePK().
		Exec(ctx); err != nil {
		return fmt.Errorf("(*MutationRecord).Settle: %w", err)
	}
	return nil
}
