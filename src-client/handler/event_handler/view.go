package event_handler

import (
	"context"
	"log/slog"

	"eventdesk/src-client/utils"

	"github.com/bwmarrin/discordgo"
)

func view(as *utils.AppState, cmdInfo *[]*discordgo.ApplicationCommandOption, cmdHandler map[string]utils.HandlerFunc) {
	id := "view"
	*cmdInfo = append(*cmdInfo, &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        id,
		Description: "Show the details of an event.",
		Options:     []*discordgo.ApplicationCommandOption{eventIDOption()},
	})
	cmdHandler[id] = viewHandler(as)
}

func viewHandler(as *utils.AppState) utils.HandlerFunc {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if err := utils.InteractRespDefer(as, s, i); err != nil {
			slog.Warn("can't respond", "handler", "event-view", "content", "deferring", "error", err)
			return nil
		}

		eventID := optionMap(i)["event-id"].StringValue()
		event, err := as.Events.LoadEvent(context.Background(), eventID)
		if err != nil {
			utils.InteractRespEdit(s, i.Interaction, "event-view", errorContent("Failed to load event details.", err))
			return nil
		}

		embeds := []*discordgo.MessageEmbed{event.ToDiscordEmbed(as.Config.GetLocation(), as.Config.GetImageBaseURL())}
		if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Embeds: &embeds,
		}); err != nil {
			slog.Warn("can't respond", "handler", "event-view", "content", "event-view", "error", err)
		}
		return nil
	}
}
