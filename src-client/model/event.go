package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Event is the wire shape of an event held by the backend.
type Event struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"` // YYYY-MM-DD
	Time        string `json:"time"` // HH:MM
	Image       string `json:"image"`
	Location    string `json:"location"`
}

// Image is one of the pictures the backend lets an event use.
type Image struct {
	Path    string `json:"path"`
	Caption string `json:"caption"`
}

// Validate checks the fields the backend would reject before anything is sent.
func (e *Event) Validate() error {
	switch {
	case strings.TrimSpace(e.Title) == "":
		return fmt.Errorf("(*Event).Validate: title is blank")
	case e.Date == "":
		return fmt.Errorf("(*Event).Validate: date is blank")
	case e.Time == "":
		return fmt.Errorf("(*Event).Validate: time is blank")
	case strings.ContainsAny(e.Image, `/\`):
		return fmt.Errorf("(*Event).Validate: image must be a file name, got %q", e.Image)
	}
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return fmt.Errorf("(*Event).Validate: date is invalid: %w", err)
	}
	if _, err := time.Parse(TimeLayout, e.Time); err != nil {
		return fmt.Errorf("(*Event).Validate: time is invalid: %w", err)
	}
	return nil
}

// StartsAt combines Date and Time in loc.
func (e *Event) StartsAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, e.Date+" "+e.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("(*Event).StartsAt: %w", err)
	}
	return t, nil
}

// SetStart writes t into Date and Time.
func (e *Event) SetStart(t time.Time) {
	e.Date = t.Format(DateLayout)
	e.Time = t.Format(TimeLayout)
}

// Merge returns e with every non-empty field of patch applied. The ID is kept.
func (e Event) Merge(patch Event) Event {
	if patch.Title != "" {
		e.Title = patch.Title
	}
	if patch.Description != "" {
		e.Description = patch.Description
	}
	if patch.Date != "" {
		e.Date = patch.Date
	}
	if patch.Time != "" {
		e.Time = patch.Time
	}
	if patch.Image != "" {
		e.Image = patch.Image
	}
	if patch.Location != "" {
		e.Location = patch.Location
	}
	return e
}

// ToDiscordEmbed renders the event. imageBaseURL prefixes the image file name
// and the image is left out when it is empty.
func (e *Event) ToDiscordEmbed(loc *time.Location, imageBaseURL string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Footer: &discordgo.MessageEmbedFooter{
			Text: e.ID,
		},
	}
	if start, err := e.StartsAt(loc); err == nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Date",
			Value:  fmt.Sprintf("<t:%d:f>", start.Unix()),
			Inline: true,
		})
	} else {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Date",
			Value:  strings.TrimSpace(e.Date + " " + e.Time),
			Inline: true,
		})
	}
	if e.Location != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Location",
			Value:  e.Location,
			Inline: true,
		})
	}
	if e.Image != "" && imageBaseURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{
			URL: strings.TrimSuffix(imageBaseURL, "/") + "/" + e.Image,
		}
	}
	return embed
}
