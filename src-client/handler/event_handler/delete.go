package event_handler

import (
	"context"
	"log/slog"

	"eventdesk/src-client/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

func delete(as *utils.AppState, cmdInfo *[]*discordgo.ApplicationCommandOption, cmdHandler map[string]utils.HandlerFunc) {
	id := "delete"
	*cmdInfo = append(*cmdInfo, &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        id,
		Description: "Delete an event.",
		Options:     []*discordgo.ApplicationCommandOption{eventIDOption()},
	})
	cmdHandler[id] = deleteHandler(as)
}

func deleteHandler(as *utils.AppState) utils.HandlerFunc {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if err := utils.InteractRespDefer(as, s, i); err != nil {
			slog.Warn("can't respond", "handler", "event-delete", "content", "deferring", "error", err)
			return nil
		}

		ctx := context.Background()
		eventID := optionMap(i)["event-id"].StringValue()
		event, err := as.Events.LoadEvent(ctx, eventID)
		if err != nil {
			utils.InteractRespEdit(s, i.Interaction, "event-delete", errorContent("Failed to load event details.", err))
			return nil
		}

		embeds := []*discordgo.MessageEmbed{event.ToDiscordEmbed(as.Config.GetLocation(), as.Config.GetImageBaseURL())}
		answer, err := askForConfirmation(as, s, i.Interaction, "event-delete-"+uuid.NewString(),
			"Are you sure you want to delete this event?", embeds)
		if err != nil {
			slog.Warn("can't respond", "handler", "event-delete", "content", "confirmation", "error", err)
			return nil
		}
		if answer.timeout {
			utils.InteractRespEdit(s, i.Interaction, "event-delete", "Timeout, the event was kept.")
			return nil
		}
		if !answer.confirmed {
			respondUpdate(s, answer.interaction, "event-delete", "Cancelled, the event was kept.", nil)
			return nil
		}

		if _, err := as.Events.NewDeleteMutation().Mutate(ctx, eventID); err != nil {
			respondUpdate(s, answer.interaction, "event-delete",
				errorContent("Failed to delete the event, it was put back.", err), nil)
			return err
		}
		respondUpdate(s, answer.interaction, "event-delete", "Event deleted: "+event.Title, nil)
		return nil
	}
}
