package model

import "fmt"

type DiffEvent struct {
	Title       string
	Description string
	Date        string
	Time        string
	Image       string
	Location    string
}

func diffField(newValue, oldValue string) string {
	switch newExist, oldExist := newValue != "", oldValue != ""; {
	case newExist && oldExist && newValue == oldValue:
		return fmt.Sprintf("%s `[unchanged]`", oldValue)
	case newExist && oldExist:
		return fmt.Sprintf("%s `[old value: %s]`", newValue, oldValue)
	case newExist && !oldExist:
		return fmt.Sprintf("%s `[old value: None]`", newValue)
	case !newExist && oldExist:
		return fmt.Sprintf("%s `[unchanged]`", oldValue)
	}
	return ""
}

// Diff describes what applying otherEvent as a patch would change.
func (e *Event) Diff(otherEvent *Event) DiffEvent {
	return DiffEvent{
		Title:       diffField(otherEvent.Title, e.Title),
		Description: diffField(otherEvent.Description, e.Description),
		Date:        diffField(otherEvent.Date, e.Date),
		Time:        diffField(otherEvent.Time, e.Time),
		Image:       diffField(otherEvent.Image, e.Image),
		Location:    diffField(otherEvent.Location, e.Location),
	}
}

// Changed reports whether any field of the diff carries a new value.
func (d DiffEvent) Changed() bool {
	for _, v := range []string{d.Title, d.Description, d.Date, d.Time, d.Image, d.Location} {
		if v != "" && !isUnchanged(v) {
			return true
		}
	}
	return false
}

func isUnchanged(v string) bool {
	const suffix = "`[unchanged]`"
	return len(v) >= len(suffix) && v[len(v)-len(suffix):] == suffix
}
