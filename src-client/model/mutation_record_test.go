package model_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"eventdesk/src-client/model"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func TestMutationRecord(t *testing.T) {
	// init db
	db, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	bundb := bun.NewDB(db, sqlitedialect.New())
	defer bundb.Close()

	if err := model.CreateSchema(context.Background(), bundb); err != nil {
		t.Fatal(err)
	}
	// running it twice must be harmless
	if err := model.CreateSchema(context.Background(), bundb); err != nil {
		t.Fatal(err)
	}

	record := model.MutationRecord{
		ID:      uuid.NewString(),
		Kind:    model.MutationKindUpdate,
		EventID: "e1",
		Title:   "New",
	}
	if err := record.Insert(context.Background(), bundb); err != nil {
		t.Fatal(err)
	}
	if record.Status != model.MutationStatusPending || record.StartedAt == 0 {
		t.Errorf("insert defaults not applied: %+v", record)
	}

	if err := record.Settle(context.Background(), bundb, model.MutationStatusRolledBack, errors.New("server error")); err != nil {
		t.Fatal(err)
	}

	stored := new(model.MutationRecord)
	if err := bundb.NewSelect().
		Model(stored).
		Where("id = ?", record.ID).
		Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if stored.Status != model.MutationStatusRolledBack || stored.Error != "server error" || stored.SettledAt == 0 {
		t.Errorf("unexpected stored record %+v", stored)
	}

	if err := (&model.MutationRecord{Kind: model.MutationKindCreate}).Insert(context.Background(), bundb); err == nil {
		t.Error("expected an error for a blank id")
	}
}
