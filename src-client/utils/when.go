package utils

import (
	"fmt"
	"strings"
	"time"

	"eventdesk/src-client/model"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// NewWhenParser returns a date parser knowing English and numeric formats.
func NewWhenParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// ParseDate accepts YYYY-MM-DD or anything the natural language parser
// understands ("next friday").
func ParseDate(w *when.Parser, value string, now time.Time) (string, error) {
	return parseWhen(w, value, now, model.DateLayout, "date")
}

// ParseTime accepts HH:MM or anything the natural language parser
// understands ("3pm").
func ParseTime(w *when.Parser, value string, now time.Time) (string, error) {
	return parseWhen(w, value, now, model.TimeLayout, "time")
}

func parseWhen(w *when.Parser, value string, now time.Time, layout, what string) (string, error) {
	value = strings.TrimSpace(value)
	if _, err := time.Parse(layout, value); err == nil {
		return value, nil
	}
	result, err := w.Parse(value, now)
	if err != nil {
		return "", fmt.Errorf("can't parse %s: %w", what, err)
	}
	if result == nil {
		return "", fmt.Errorf("can't parse %s %q", what, value)
	}
	return result.Time.Format(layout), nil
}
