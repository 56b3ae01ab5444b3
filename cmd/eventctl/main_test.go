package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"eventdesk/src-client/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	stored := map[string]model.Event{
		"e1": {ID: "e1", Title: "Jazz Night", Date: "2024-06-10", Time: "20:00", Location: "Main Hall"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		list := []model.Event{}
		for _, ev := range stored {
			list = append(list, ev)
		}
		json.NewEncoder(w).Encode(map[string]any{"events": list})
	})
	mux.HandleFunc("GET /events/{id}", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		ev, ok := stored[r.PathValue("id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"event not found"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"event": ev})
	})
	mux.HandleFunc("PUT /events/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Event model.Event `json:"event"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		defer mu.Unlock()
		stored[r.PathValue("id")] = body.Event
		json.NewEncoder(w).Encode(map[string]any{"event": body.Event})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestListAndView(t *testing.T) {
	srv := newBackend(t)

	out, err := run(t, "--api-url", srv.URL, "list")
	require.NoError(t, err)
	assert.Equal(t, "e1  2024-06-10 20:00  Jazz Night @ Main Hall\n", out)

	_, err = run(t, "--api-url", srv.URL, "view", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event not found")
}

func TestEditOnlyChangesGivenFields(t *testing.T) {
	srv := newBackend(t)

	out, err := run(t, "--api-url", srv.URL, "--location", "UTC", "edit", "e1", "--time", "21:00")
	require.NoError(t, err)
	assert.Equal(t, "e1  2024-06-10 21:00  Jazz Night @ Main Hall\n", out)

	out, err = run(t, "--api-url", srv.URL, "edit", "e1", "--time", "21:00")
	require.NoError(t, err)
	assert.Equal(t, "nothing to change\n", out)
}

func TestMissingBackend(t *testing.T) {
	t.Setenv("API_URL", "")
	_, err := run(t, "list")
	assert.ErrorContains(t, err, "no backend given")
}
