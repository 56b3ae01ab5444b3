package event_handler

import (
	"context"
	"log/slog"

	"eventdesk/src-client/utils"

	"github.com/bwmarrin/discordgo"
)

func list(as *utils.AppState, cmdInfo *[]*discordgo.ApplicationCommandOption, cmdHandler map[string]utils.HandlerFunc) {
	id := "list"
	*cmdInfo = append(*cmdInfo, &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        id,
		Description: "List events.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "search",
				Description: "Only list events matching this term.",
			},
		},
	})
	cmdHandler[id] = listHandler(as)
}

func listHandler(as *utils.AppState) utils.HandlerFunc {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if err := utils.InteractRespDefer(as, s, i); err != nil {
			slog.Warn("can't respond", "handler", "event-list", "content", "deferring", "error", err)
			return nil
		}

		var term string
		if value, ok := optionMap(i)["search"]; ok {
			term = value.StringValue()
		}

		events, err := as.Events.LoadEvents(context.Background(), term)
		if err != nil {
			utils.InteractRespEdit(s, i.Interaction, "event-list", errorContent("Failed to load events.", err))
			return err
		}

		content := listContent(len(events), term)
		embeds := eventEmbeds(events, as.Config.GetLocation(), as.Config.GetImageBaseURL())
		if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Content: &content,
			Embeds:  &embeds,
		}); err != nil {
			slog.Warn("can't respond", "handler", "event-list", "content", "events-list", "error", err)
		}
		return nil
	}
}
