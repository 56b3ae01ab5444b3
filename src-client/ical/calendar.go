// The `ical` package serializes events into an iCalendar feed.
//
// # References:
// - RFC5545: https://datatracker.ietf.org/doc/html/rfc5545
//
// # Notes:
// - Only VEVENT is written. Events carry no end, every VEVENT lasts
//   DefaultDuration.
// - Datetimes are written in UTC.
//
// # Example usage:
//
//	calendar := ical.NewCalendar("eventdesk")
//	_ = calendar.AddEvent(ev, loc)
//	_ = calendar.ToIcal(func(s string) { sb.WriteString(s) })
package ical

import (
	"fmt"
	"strings"
	"time"

	"eventdesk/src-client/model"
)

const DefaultDuration = time.Hour

type vevent struct {
	uid         string
	summary     string
	description string
	location    string
	start       time.Time
	stamp       time.Time
}

type Calendar struct {
	prodID string
	events []vevent
}

func NewCalendar(prodID string) Calendar {
	return Calendar{prodID: prodID}
}

// AddEvent appends ev, reading its date and time in loc.
func (c *Calendar) AddEvent(ev model.Event, loc *time.Location) error {
	start, err := ev.StartsAt(loc)
	if err != nil {
		return fmt.Errorf("(*Calendar).AddEvent: %w", err)
	}
	c.events = append(c.events, vevent{
		uid:         ev.ID,
		summary:     ev.Title,
		description: ev.Description,
		location:    ev.Location,
		start:       start,
		stamp:       time.Now(),
	})
	return nil
}

func (c *Calendar) Len() int {
	return len(c.events)
}

// ToIcal writes the calendar through writer, folding long lines.
func (c *Calendar) ToIcal(writer func(string)) error {
	write := fold75Writer(writer)
	write("BEGIN:VCALENDAR")
	write("VERSION:2.0")
	write("PRODID:" + escapeText(c.prodID))
	write("CALSCALE:GREGORIAN")
	for _, ev := range c.events {
		if ev.uid == "" {
			return fmt.Errorf("(*Calendar).ToIcal: event %q has no ID", ev.summary)
		}
		write("BEGIN:VEVENT")
		write("UID:" + escapeText(ev.uid))
		write("DTSTAMP:" + timeToIcalDatetime(ev.stamp))
		write("DTSTART:" + timeToIcalDatetime(ev.start))
		write("DTEND:" + timeToIcalDatetime(ev.start.Add(DefaultDuration)))
		write("SUMMARY:" + escapeText(ev.summary))
		if ev.description != "" {
			write("DESCRIPTION:" + escapeText(ev.description))
		}
		if ev.location != "" {
			write("LOCATION:" + escapeText(ev.location))
		}
		write("END:VEVENT")
	}
	write("END:VCALENDAR")
	return nil
}

// YYYYMMDDTHHMMSSZ
func timeToIcalDatetime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\r\n", `\n`,
	"\n", `\n`,
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}
