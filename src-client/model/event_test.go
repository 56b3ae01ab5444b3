package model_test

import (
	"strconv"
	"testing"
	"time"

	"eventdesk/src-client/model"
)

func TestEventValidate(t *testing.T) {
	valid := model.Event{Title: "Standup", Date: "2024-05-01", Time: "09:30", Image: "meeting.jpg"}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid event, got %v", err)
	}

	for name, ev := range map[string]model.Event{
		"blank title":  {Title: " ", Date: "2024-05-01", Time: "09:30"},
		"bad date":     {Title: "x", Date: "01/05/2024", Time: "09:30"},
		"bad time":     {Title: "x", Date: "2024-05-01", Time: "9.30pm"},
		"missing time": {Title: "x", Date: "2024-05-01"},
		"image path":   {Title: "x", Date: "2024-05-01", Time: "09:30", Image: "../etc/passwd"},
	} {
		if err := ev.Validate(); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestEventMergeAndDiff(t *testing.T) {
	old := model.Event{ID: "e1", Title: "Old", Date: "2024-05-01", Time: "09:30"}
	patch := model.Event{ID: "ignored", Title: "New", Location: "Room 4"}

	merged := old.Merge(patch)
	if merged.ID != "e1" || merged.Title != "New" || merged.Location != "Room 4" || merged.Date != "2024-05-01" {
		t.Errorf("unexpected merge result %+v", merged)
	}

	diff := old.Diff(&patch)
	if diff.Title != "New `[old value: Old]`" {
		t.Errorf("unexpected title diff %q", diff.Title)
	}
	if diff.Location != "Room 4 `[old value: None]`" {
		t.Errorf("unexpected location diff %q", diff.Location)
	}
	if diff.Date != "2024-05-01 `[unchanged]`" {
		t.Errorf("unexpected date diff %q", diff.Date)
	}
	if !diff.Changed() {
		t.Error("diff should report a change")
	}

	same := old.Diff(&model.Event{Title: "Old"})
	if same.Changed() {
		t.Errorf("diff should not report a change: %+v", same)
	}
}

func TestEventToDiscordEmbed(t *testing.T) {
	ev := model.Event{ID: "e1", Title: "Standup", Date: "2024-05-01", Time: "09:30", Image: "meeting.jpg", Location: "Room 4"}
	embed := ev.ToDiscordEmbed(time.UTC, "http://localhost:3000/")

	if embed.Title != "Standup" || embed.Footer.Text != "e1" {
		t.Errorf("unexpected embed %+v", embed)
	}
	if embed.Image == nil || embed.Image.URL != "http://localhost:3000/meeting.jpg" {
		t.Errorf("unexpected image %+v", embed.Image)
	}
	start := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC).Unix()
	if embed.Fields[0].Value != "<t:"+strconv.FormatInt(start, 10)+":f>" {
		t.Errorf("unexpected date field %q", embed.Fields[0].Value)
	}

	noImage := ev.ToDiscordEmbed(time.UTC, "")
	if noImage.Image != nil {
		t.Error("image must be left out without a base URL")
	}
}
