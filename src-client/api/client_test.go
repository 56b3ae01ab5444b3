package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"eventdesk/src-client/api"
	"eventdesk/src-client/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	events := map[string]model.Event{
		"e1": {ID: "e1", Title: "Standup", Date: "2024-05-01", Time: "09:30"},
	}
	var mu sync.Mutex

	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		list := []model.Event{}
		for _, ev := range events {
			if q := r.URL.Query().Get("search"); q == "" || q == ev.Title {
				list = append(list, ev)
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"events": list})
	})
	mux.HandleFunc("GET /events/images", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"images": []model.Image{{Path: "a.jpg", Caption: "A"}}})
	})
	mux.HandleFunc("GET /events/{id}", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		ev, ok := events[r.PathValue("id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"not found"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"event": ev})
	})
	mux.HandleFunc("POST /events", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Event model.Event `json:"event"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		body.Event.ID = "e2"
		events["e2"] = body.Event
		json.NewEncoder(w).Encode(map[string]any{"event": body.Event})
	})
	mux.HandleFunc("PUT /events/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Event model.Event `json:"event"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		events[r.PathValue("id")] = body.Event
		// answer without a body like the original backend
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("DELETE /events/{id}", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		delete(events, r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientRoundTrip(t *testing.T) {
	srv := newBackend(t)
	var mu sync.Mutex
	seen := map[string]int{}
	c := api.NewClient(srv.URL+"/", time.Second, api.WithLatencyObserver(func(endpoint string, latency time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		seen[endpoint]++
	}))
	ctx := context.Background()

	list, err := c.FetchEvents(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 1)

	created, err := c.CreateEvent(ctx, model.Event{Title: "Retro", Date: "2024-05-02", Time: "15:00"})
	require.NoError(t, err)
	assert.Equal(t, "e2", created.ID)

	updated, err := c.UpdateEvent(ctx, "e1", model.Event{Title: "Daily", Date: "2024-05-01", Time: "09:30"})
	require.NoError(t, err)
	assert.Equal(t, "e1", updated.ID)
	assert.Equal(t, "Daily", updated.Title)

	got, err := c.FetchEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Daily", got.Title)

	found, err := c.FetchEvents(ctx, "Retro")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "e2", found[0].ID)

	require.NoError(t, c.DeleteEvent(ctx, "e2"))
	list, err = c.FetchEvents(ctx, "")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	images, err := c.FetchSelectableImages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Image{{Path: "a.jpg", Caption: "A"}}, images)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, seen["GET /events"])
	assert.Equal(t, 1, seen["GET /events/{id}"])
	assert.Equal(t, 1, seen["PUT /events/{id}"])
}

func TestClientNotFound(t *testing.T) {
	srv := newBackend(t)
	c := api.NewClient(srv.URL, time.Second)

	_, err := c.FetchEvent(context.Background(), "missing")
	require.Error(t, err)

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Code)
	assert.Equal(t, "not found", apiErr.Info.Message)
	assert.True(t, api.IsNotFound(err))
	assert.Equal(t, "not found", api.Message(err, "Please try again later."))
	assert.Equal(t, "Please try again later.", api.Message(errors.New("dial"), "Please try again later."))
}

func TestClientPlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database is down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := api.NewClient(srv.URL, time.Second).FetchEvents(context.Background(), "")
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Code)
	assert.Equal(t, "database is down", apiErr.Info.Message)
}

func TestClientHonoursContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := api.NewClient(srv.URL, 5*time.Second).FetchEvent(ctx, "e1")
	assert.ErrorIs(t, err, context.Canceled)
}
