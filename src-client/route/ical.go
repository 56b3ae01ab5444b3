package route

import (
	"io"
	"log/slog"
	"net/http"

	"eventdesk/src-client/api"
	"eventdesk/src-client/ical"
	"eventdesk/src-client/utils"
)

// Ical serves the cached event list as an iCalendar feed.
func Ical(muxer *http.ServeMux, as *utils.AppState) {
	muxer.HandleFunc("GET /events.ics", func(w http.ResponseWriter, r *http.Request) {
		events, err := as.Events.LoadEvents(r.Context(), r.URL.Query().Get("search"))
		if err != nil {
			writeJson(w, http.StatusBadGateway, map[string]string{"message": api.Message(err, err.Error())})
			return
		}

		icalCalendar := ical.NewCalendar("-//eventdesk//events//EN")
		for _, event := range events {
			if err := icalCalendar.AddEvent(event, as.Events.Location); err != nil {
				slog.Warn("event left out of the feed", "event", event.ID, "error", err)
			}
		}

		// write the ical calendar
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		writer := func(s string) {
			if _, err := io.WriteString(w, s); err != nil {
				slog.Warn("can't write to response", "where", "route/ical.go", "err", err)
			}
		}
		if err := icalCalendar.ToIcal(writer); err != nil {
			slog.Warn("can't serialize calendar", "error", err)
		}
	})
}
