package route

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"eventdesk/src-client/query"
	"eventdesk/src-client/utils"
)

type EntryRespBody struct {
	Key         []string  `json:"key"`
	Status      string    `json:"status"`
	HasData     bool      `json:"hasData"`
	Stale       bool      `json:"stale"`
	Fetching    bool      `json:"fetching"`
	Generation  uint64    `json:"generation"`
	Subscribers int       `json:"subscribers"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Error       string    `json:"error,omitempty"`
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("can't write response body", "error", err)
	}
}

// Cache exposes the query cache for debugging.
func Cache(muxer *http.ServeMux, as *utils.AppState) {
	// list entries, optionally under ?prefix=events/search
	muxer.HandleFunc("GET /cache", func(w http.ResponseWriter, r *http.Request) {
		entries := as.Cache.Entries(query.ParseKey(r.URL.Query().Get("prefix")))
		respBody := make([]EntryRespBody, 0, len(entries))
		for _, ent := range entries {
			entry := EntryRespBody{
				Key:         ent.Key,
				Status:      ent.Status.String(),
				HasData:     ent.HasData,
				Stale:       ent.Stale,
				Fetching:    ent.Fetching,
				Generation:  ent.Generation,
				Subscribers: ent.Subscribers,
				UpdatedAt:   ent.UpdatedAt,
			}
			if ent.Err != nil {
				entry.Error = ent.Err.Error()
			}
			respBody = append(respBody, entry)
		}
		writeJson(w, http.StatusOK, respBody)
	})

	// invalidate ?key=events/e1[&exact=true][&refetch=false]
	muxer.HandleFunc("POST /cache/invalidate", func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()
		if params.Get("key") == "" {
			writeJson(w, http.StatusBadRequest, map[string]string{"message": "Please provide a key"})
			return
		}
		key := query.ParseKey(params.Get("key"))

		var opts []query.InvalidateOption
		if exact, err := strconv.ParseBool(params.Get("exact")); err == nil {
			if exact {
				opts = append(opts, query.Exact())
			} else {
				opts = append(opts, query.Prefix())
			}
		}
		if refetch, err := strconv.ParseBool(params.Get("refetch")); err == nil && !refetch {
			opts = append(opts, query.WithoutRefetch())
		}

		if err := as.Cache.Invalidate(r.Context(), key, opts...); err != nil {
			slog.Warn("manual invalidation failed", "key", key.String(), "error", err)
			writeJson(w, http.StatusBadGateway, map[string]string{"message": err.Error()})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
