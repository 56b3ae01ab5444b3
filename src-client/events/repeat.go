package events

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"eventdesk/src-client/model"

	"github.com/xyedo/rrule"
	"golang.org/x/sync/errgroup"
)

// MaxOccurrences caps how many events one repeat rule may create.
const MaxOccurrences = 12

// concurrent create requests issued by CreateRepeating
const createConcurrency = 4

// Occurrences expands an RRULE ("FREQ=WEEKLY;COUNT=4") starting at start.
// Only the first year and at most MaxOccurrences starts are returned.
func Occurrences(start time.Time, rule string) ([]time.Time, error) {
	rule = strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:")
	if rule == "" {
		return []time.Time{start}, nil
	}

	var sb strings.Builder
	if start.Location() == time.UTC {
		sb.WriteString("DTSTART:" + start.Format("20060102T150405Z"))
	} else {
		sb.WriteString("DTSTART;TZID=" + start.Location().String() + ":" + start.Format("20060102T150405"))
	}
	sb.WriteString("\nRRULE:" + rule)

	rruleSet, err := rrule.StrToRRuleSet(sb.String())
	if err != nil {
		return nil, fmt.Errorf("events.Occurrences: invalid rule: %w", err)
	}
	times := rruleSet.Between(start, start.AddDate(1, 0, 0), true)
	if len(times) > MaxOccurrences {
		times = times[:MaxOccurrences]
	}
	out := make([]time.Time, len(times))
	for i, t := range times {
		out[i] = t.In(start.Location())
	}
	return out, nil
}

// CreateRepeating creates one copy of ev per occurrence of rule, all through
// the create mutation so each copy is journaled. It returns the events that
// were created, ordered by start, and the first error met.
func (s *Service) CreateRepeating(ctx context.Context, ev model.Event, rule string) ([]model.Event, error) {
	start, err := ev.StartsAt(s.Location)
	if err != nil {
		return nil, fmt.Errorf("events.CreateRepeating: %w", err)
	}
	starts, err := Occurrences(start, rule)
	if err != nil {
		return nil, fmt.Errorf("events.CreateRepeating: %w", err)
	}

	create := s.NewCreateMutation()
	var (
		mu      sync.Mutex
		created []model.Event
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(createConcurrency)
	for _, t := range starts {
		occurrence := ev
		occurrence.SetStart(t)
		g.Go(func() error {
			res, err := create.Mutate(gctx, occurrence)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			created = append(created, res)
			return nil
		})
	}
	err = g.Wait()

	sort.SliceStable(created, func(i, j int) bool {
		if created[i].Date != created[j].Date {
			return created[i].Date < created[j].Date
		}
		return created[i].Time < created[j].Time
	})
	if err != nil {
		return created, fmt.Errorf("events.CreateRepeating: %w", err)
	}
	return created, nil
}
