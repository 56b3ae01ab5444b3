package event_handler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"eventdesk/src-client/api"
	"eventdesk/src-client/model"
	"eventdesk/src-client/query"
	"eventdesk/src-client/utils"

	"github.com/bwmarrin/discordgo"
)

// Discord refuses more embeds than this in one message
const maxEmbeds = 10

func listContent(count int, term string) string {
	scope := "in total"
	if term != "" {
		scope = fmt.Sprintf("matching `%s`", term)
	}
	switch count {
	case 0:
		return fmt.Sprintf("No event %s.", scope)
	case 1:
		return fmt.Sprintf("There is 1 event %s.", scope)
	}
	content := fmt.Sprintf("There are %d events %s.", count, scope)
	if count > maxEmbeds {
		content += fmt.Sprintf(" Showing the first %d.", maxEmbeds)
	}
	return content
}

func eventEmbeds(events []model.Event, loc *time.Location, imageBaseURL string) []*discordgo.MessageEmbed {
	embeds := make([]*discordgo.MessageEmbed, 0, min(len(events), maxEmbeds))
	for i := range events {
		if len(embeds) == maxEmbeds {
			break
		}
		embed := events[i].ToDiscordEmbed(loc, imageBaseURL)
		embed.Description = utils.Truncate(embed.Description, 300)
		embeds = append(embeds, embed)
	}
	return embeds
}

// errorContent renders a failed load or mutation the way a user should see it.
// Backend errors show the backend's message, anything else its own text.
func errorContent(title string, err error) string {
	fallback := "Please try again later."
	if err != nil && !errors.As(err, new(*api.Error)) {
		fallback = err.Error()
	}
	return fmt.Sprintf("**%s**\n%s", title, api.Message(err, fallback))
}

func diffEmbed(id string, diff model.DiffEvent) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Changes",
		Footer: &discordgo.MessageEmbedFooter{
			Text: id,
		},
	}
	for _, field := range []struct{ name, value string }{
		{"Title", diff.Title},
		{"Description", diff.Description},
		{"Date", diff.Date},
		{"Time", diff.Time},
		{"Location", diff.Location},
		{"Image", diff.Image},
	} {
		if field.value == "" {
			continue
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  field.name,
			Value: utils.Truncate(field.value, 1024),
		})
	}
	return embed
}

// watchContent is the status line above a watched event.
func watchContent(res query.QueryResult[model.Event]) string {
	switch {
	case res.IsPending && res.IsFetching:
		return "Loading event details..."
	case res.IsError && !res.HasData:
		return errorContent("Failed to load event details.", res.Error)
	case res.IsError:
		return "Showing the last known version, refreshing failed: " + api.Message(res.Error, "please try again later.")
	case res.IsFetching:
		return "Refreshing..."
	case res.IsStale:
		return "This event may be out of date."
	}
	return "Up to date."
}

func historyContent(records []model.MutationRecord) string {
	if len(records) == 0 {
		return "No change was made from here yet."
	}
	var sb strings.Builder
	sb.WriteString("Recent changes:\n")
	for _, r := range records {
		target := r.Title
		if target == "" {
			target = r.EventID
		}
		sb.WriteString(fmt.Sprintf("- <t:%d:R> %s `%s` %s", r.StartedAt, r.Kind, target, strings.ReplaceAll(string(r.Status), "_", " ")))
		if r.Error != "" {
			sb.WriteString(": " + utils.Truncate(r.Error, 80))
		}
		sb.WriteString("\n")
	}
	return utils.Truncate(sb.String(), 2000)
}
