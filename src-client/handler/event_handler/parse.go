package event_handler

import (
	"strings"
	"time"

	"eventdesk/src-client/model"
	"eventdesk/src-client/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/olebedev/when"
)

// eventFromOptions reads the event fields present in the options. Missing
// fields are left empty so the result can serve as a patch.
func eventFromOptions(w *when.Parser, loc *time.Location, optionMap map[string]*discordgo.ApplicationCommandInteractionDataOption) (model.Event, error) {
	var ev model.Event
	now := time.Now().In(loc)
	if value, ok := optionMap["title"]; ok {
		ev.Title = utils.CleanupString(value.StringValue())
	}
	if value, ok := optionMap["description"]; ok {
		ev.Description = strings.TrimSpace(value.StringValue())
	}
	if value, ok := optionMap["location"]; ok {
		ev.Location = utils.CleanupString(value.StringValue())
	}
	if value, ok := optionMap["image"]; ok {
		ev.Image = strings.TrimSpace(value.StringValue())
	}
	if value, ok := optionMap["date"]; ok {
		date, err := utils.ParseDate(w, value.StringValue(), now)
		if err != nil {
			return model.Event{}, err
		}
		ev.Date = date
	}
	if value, ok := optionMap["time"]; ok {
		tm, err := utils.ParseTime(w, value.StringValue(), now)
		if err != nil {
			return model.Event{}, err
		}
		ev.Time = tm
	}
	return ev, nil
}

func eventFieldOptions(required bool) []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "title",
			Description: "The title of the event.",
			Required:    required,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "date",
			Description: "The date of the event, e.g. 2024-05-01 or next friday.",
			Required:    required,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "time",
			Description: "The time of the event, e.g. 18:30 or 6pm.",
			Required:    required,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "location",
			Description: "The location of the event.",
			Required:    required,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "description",
			Description: "Describe the event in detail.",
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "image",
			Description: "File name of one of the selectable images.",
		},
	}
}
