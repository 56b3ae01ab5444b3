package event_handler

import (
	"context"
	"log/slog"

	"eventdesk/src-client/events"
	"eventdesk/src-client/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

func edit(as *utils.AppState, cmdInfo *[]*discordgo.ApplicationCommandOption, cmdHandler map[string]utils.HandlerFunc) {
	id := "edit"
	options := []*discordgo.ApplicationCommandOption{eventIDOption()}
	options = append(options, eventFieldOptions(false)...)
	*cmdInfo = append(*cmdInfo, &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        id,
		Description: "Edit an event.",
		Options:     options,
	})
	cmdHandler[id] = editHandler(as)
}

func editHandler(as *utils.AppState) utils.HandlerFunc {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if err := utils.InteractRespDefer(as, s, i); err != nil {
			slog.Warn("can't respond", "handler", "event-edit", "content", "deferring", "error", err)
			return nil
		}

		ctx := context.Background()
		options := optionMap(i)
		eventID := options["event-id"].StringValue()

		// #region - build the edited event
		current, err := as.Events.LoadEvent(ctx, eventID)
		if err != nil {
			utils.InteractRespEdit(s, i.Interaction, "event-edit", errorContent("Failed to load event details.", err))
			return nil
		}
		patch, err := eventFromOptions(as.When, as.Config.GetLocation(), options)
		if err != nil {
			utils.InteractRespEdit(s, i.Interaction, "event-edit", errorContent("Invalid event.", err))
			return nil
		}
		next := current.Merge(patch)
		if err := next.Validate(); err != nil {
			utils.InteractRespEdit(s, i.Interaction, "event-edit", errorContent("Invalid event.", err))
			return nil
		}
		if patch.Image != "" && patch.Image != current.Image {
			if err := checkImage(ctx, as, patch.Image); err != nil {
				utils.InteractRespEdit(s, i.Interaction, "event-edit", errorContent("Invalid event.", err))
				return nil
			}
		}
		diff := current.Diff(&patch)
		if !diff.Changed() {
			utils.InteractRespEdit(s, i.Interaction, "event-edit", "Nothing to change.")
			return nil
		}
		// #endregion

		// #region - confirmation
		answer, err := askForConfirmation(as, s, i.Interaction, "event-edit-"+uuid.NewString(),
			"Apply these changes?", []*discordgo.MessageEmbed{diffEmbed(eventID, diff)})
		if err != nil {
			slog.Warn("can't respond", "handler", "event-edit", "content", "confirmation", "error", err)
			return nil
		}
		if answer.timeout {
			utils.InteractRespEdit(s, i.Interaction, "event-edit", "Timeout, no changes were made.")
			return nil
		}
		if !answer.confirmed {
			respondUpdate(s, answer.interaction, "event-edit", "Cancelled, no changes were made.", nil)
			return nil
		}
		// #endregion

		updated, err := as.Events.NewUpdateMutation().Mutate(ctx, events.UpdateInput{ID: eventID, Event: next})
		if err != nil {
			respondUpdate(s, answer.interaction, "event-edit",
				errorContent("Failed to update the event, the previous version was restored.", err), nil)
			return err
		}
		respondUpdate(s, answer.interaction, "event-edit", "Event updated.",
			[]*discordgo.MessageEmbed{updated.ToDiscordEmbed(as.Config.GetLocation(), as.Config.GetImageBaseURL())})
		return nil
	}
}
