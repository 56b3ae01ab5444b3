package events_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"eventdesk/src-client/api"
	"eventdesk/src-client/events"
	"eventdesk/src-client/model"
	"eventdesk/src-client/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// backend is an in-memory events server. Hooks let a test look at the cache
// while a write request is in flight, or fail it.
type backend struct {
	mu     sync.Mutex
	events map[string]model.Event
	nextID int

	gets atomic.Int32

	beforeWrite func(r *http.Request)
	failWrites  bool
}

func newBackend(t *testing.T, seed ...model.Event) (*backend, *httptest.Server) {
	t.Helper()
	b := &backend{events: map[string]model.Event{}}
	for _, ev := range seed {
		b.events[ev.ID] = ev
	}

	write := func(w http.ResponseWriter, r *http.Request) bool {
		if b.beforeWrite != nil {
			b.beforeWrite(r)
		}
		if b.failWrites {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message":"boom"}`))
			return false
		}
		return true
	}
	decode := func(r *http.Request) model.Event {
		var body struct {
			Event model.Event `json:"event"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		return body.Event
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, r *http.Request) {
		b.gets.Add(1)
		b.mu.Lock()
		defer b.mu.Unlock()
		list := []model.Event{}
		for _, ev := range b.events {
			if q := r.URL.Query().Get("search"); q == "" || q == ev.Title {
				list = append(list, ev)
			}
		}
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
		json.NewEncoder(w).Encode(map[string]any{"events": list})
	})
	mux.HandleFunc("GET /events/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.gets.Add(1)
		b.mu.Lock()
		defer b.mu.Unlock()
		ev, ok := b.events[r.PathValue("id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"not found"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"event": ev})
	})
	mux.HandleFunc("POST /events", func(w http.ResponseWriter, r *http.Request) {
		ev := decode(r)
		if !write(w, r) {
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		b.nextID++
		ev.ID = "n" + string(rune('a'+b.nextID-1))
		b.events[ev.ID] = ev
		json.NewEncoder(w).Encode(map[string]any{"event": ev})
	})
	mux.HandleFunc("PUT /events/{id}", func(w http.ResponseWriter, r *http.Request) {
		ev := decode(r)
		if !write(w, r) {
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		b.events[r.PathValue("id")] = ev
		json.NewEncoder(w).Encode(map[string]any{"event": ev})
	})
	mux.HandleFunc("DELETE /events/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !write(w, r) {
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.events, r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, srv
}

func newJournal(t *testing.T) *events.Journal {
	t.Helper()
	db, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	bundb := bun.NewDB(db, sqlitedialect.New())
	t.Cleanup(func() { bundb.Close() })
	require.NoError(t, model.CreateSchema(context.Background(), bundb))
	return events.NewJournal(bundb)
}

func newService(t *testing.T, srv *httptest.Server, journal *events.Journal) *events.Service {
	t.Helper()
	return events.NewService(query.NewCache(), api.NewClient(srv.URL, time.Second), journal, time.UTC)
}

var standup = model.Event{ID: "e1", Title: "Old", Date: "2024-05-01", Time: "09:30"}

func TestLoadEventUsesCache(t *testing.T) {
	b, srv := newBackend(t, standup)
	svc := newService(t, srv, nil)

	for i := 0; i < 3; i++ {
		ev, err := svc.LoadEvent(context.Background(), "e1")
		require.NoError(t, err)
		assert.Equal(t, "Old", ev.Title)
	}
	assert.EqualValues(t, 1, b.gets.Load())

	_, err := svc.LoadEvent(context.Background(), "missing")
	assert.True(t, api.IsNotFound(err))
}

func TestOptimisticUpdateRollsBack(t *testing.T) {
	b, srv := newBackend(t, standup)
	journal := newJournal(t)
	svc := newService(t, srv, journal)

	_, err := svc.LoadEvent(context.Background(), "e1")
	require.NoError(t, err)

	var during string
	b.beforeWrite = func(r *http.Request) {
		ev, _ := query.GetData[model.Event](svc.Cache, events.DetailKey("e1"))
		during = ev.Title
	}
	b.failWrites = true

	update := svc.NewUpdateMutation()
	next := standup
	next.Title = "New"
	_, err = update.Mutate(context.Background(), events.UpdateInput{ID: "e1", Event: next})

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "boom", apiErr.Info.Message)
	assert.Equal(t, "New", during)

	ev, ok := query.GetData[model.Event](svc.Cache, events.DetailKey("e1"))
	require.True(t, ok)
	assert.Equal(t, "Old", ev.Title)
	assert.True(t, update.Result().IsError)

	records, err := journal.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.MutationStatusRolledBack, records[0].Status)
	assert.Equal(t, model.MutationKindUpdate, records[0].Kind)
}

func TestUpdateRefetchesWatchedEventOnce(t *testing.T) {
	b, srv := newBackend(t, standup)
	svc := newService(t, srv, newJournal(t))

	q := svc.NewEventQuery("e1")
	defer q.Close()
	q.Activate(context.Background())
	_, err := q.Await(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, b.gets.Load())

	next := standup
	next.Title = "New"
	_, err = svc.NewUpdateMutation().Mutate(context.Background(), events.UpdateInput{ID: "e1", Event: next})
	require.NoError(t, err)

	// Invalidate waits for the refetch of the watched entry
	assert.EqualValues(t, 2, b.gets.Load())
	res := q.Result()
	assert.Equal(t, "New", res.Data.Title)
	assert.False(t, res.IsStale)
}

func TestOptimisticDelete(t *testing.T) {
	other := model.Event{ID: "e2", Title: "Retro", Date: "2024-05-02", Time: "15:00"}
	b, srv := newBackend(t, standup, other)
	svc := newService(t, srv, newJournal(t))

	list, err := svc.LoadEvents(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	search, err := svc.LoadEvents(context.Background(), "Old")
	require.NoError(t, err)
	require.Len(t, search, 1)

	var during []int
	b.beforeWrite = func(r *http.Request) {
		all, _ := query.GetData[[]model.Event](svc.Cache, events.AllKey)
		found, _ := query.GetData[[]model.Event](svc.Cache, events.SearchKey("Old"))
		during = []int{len(all), len(found)}
	}

	t.Run("failure restores every list", func(t *testing.T) {
		b.failWrites = true
		_, err := svc.NewDeleteMutation().Mutate(context.Background(), "e1")
		require.Error(t, err)
		assert.Equal(t, []int{1, 0}, during)

		all, _ := query.GetData[[]model.Event](svc.Cache, events.AllKey)
		assert.Len(t, all, 2)
		found, _ := query.GetData[[]model.Event](svc.Cache, events.SearchKey("Old"))
		assert.Len(t, found, 1)
	})

	t.Run("success refetches lists on next read", func(t *testing.T) {
		b.failWrites = false
		_, err := svc.NewDeleteMutation().Mutate(context.Background(), "e1")
		require.NoError(t, err)

		ent, _ := svc.Cache.Get(events.AllKey)
		assert.True(t, ent.Stale)

		list, err := svc.LoadEvents(context.Background(), "")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "e2", list[0].ID)
	})
}

func TestCreateValidatesBeforeSending(t *testing.T) {
	_, srv := newBackend(t)
	svc := newService(t, srv, nil)

	_, err := svc.NewCreateMutation().Mutate(context.Background(), model.Event{Title: "", Date: "2024-05-01", Time: "10:00"})
	assert.Error(t, err)

	created, err := svc.NewCreateMutation().Mutate(context.Background(), model.Event{Title: "Launch", Date: "2024-05-01", Time: "10:00"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	// the new event is cached under its ID
	ev, ok := query.GetData[model.Event](svc.Cache, events.DetailKey(created.ID))
	require.True(t, ok)
	assert.Equal(t, "Launch", ev.Title)
}

func TestCreateRepeating(t *testing.T) {
	b, srv := newBackend(t)
	journal := newJournal(t)
	svc := newService(t, srv, journal)

	created, err := svc.CreateRepeating(context.Background(),
		model.Event{Title: "Sync", Date: "2024-05-01", Time: "10:00"},
		"FREQ=WEEKLY;COUNT=3",
	)
	require.NoError(t, err)
	require.Len(t, created, 3)
	assert.Equal(t, "2024-05-01", created[0].Date)
	assert.Equal(t, "2024-05-08", created[1].Date)
	assert.Equal(t, "2024-05-15", created[2].Date)

	b.mu.Lock()
	assert.Len(t, b.events, 3)
	b.mu.Unlock()

	records, err := journal.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, model.MutationStatusSuccess, r.Status)
		assert.NotEmpty(t, r.EventID)
	}
}

func TestOccurrences(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	once, err := events.Occurrences(start, "")
	require.NoError(t, err)
	assert.Equal(t, []time.Time{start}, once)

	daily, err := events.Occurrences(start, "RRULE:FREQ=DAILY")
	require.NoError(t, err)
	assert.Len(t, daily, events.MaxOccurrences)
	assert.Equal(t, start.AddDate(0, 0, 1), daily[1])

	_, err = events.Occurrences(start, "FREQ=SOMETIMES")
	assert.Error(t, err)
}
