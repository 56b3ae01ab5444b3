package event_handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"eventdesk/src-client/events"
	"eventdesk/src-client/model"
	"eventdesk/src-client/utils"

	"github.com/bwmarrin/discordgo"
)

func create(as *utils.AppState, cmdInfo *[]*discordgo.ApplicationCommandOption, cmdHandler map[string]utils.HandlerFunc) {
	id := "create"
	options := eventFieldOptions(true)
	options = append(options, &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "repeat",
		Description: fmt.Sprintf("Repeat rule, e.g. FREQ=WEEKLY;COUNT=4 (at most %d events).", events.MaxOccurrences),
	})
	*cmdInfo = append(*cmdInfo, &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        id,
		Description: "Create an event.",
		Options:     options,
	})
	cmdHandler[id] = createHandler(as)
}

func createHandler(as *utils.AppState) utils.HandlerFunc {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if err := utils.InteractRespDefer(as, s, i); err != nil {
			slog.Warn("can't respond", "handler", "event-create", "content", "deferring", "error", err)
			return nil
		}

		options := optionMap(i)
		event, err := eventFromOptions(as.When, as.Config.GetLocation(), options)
		if err != nil {
			utils.InteractRespEdit(s, i.Interaction, "event-create", errorContent("Invalid event.", err))
			return nil
		}
		if err := event.Validate(); err != nil {
			utils.InteractRespEdit(s, i.Interaction, "event-create", errorContent("Invalid event.", err))
			return nil
		}

		ctx := context.Background()
		if event.Image != "" {
			if err := checkImage(ctx, as, event.Image); err != nil {
				utils.InteractRespEdit(s, i.Interaction, "event-create", errorContent("Invalid event.", err))
				return nil
			}
		}

		var created []model.Event
		if value, ok := options["repeat"]; ok && strings.TrimSpace(value.StringValue()) != "" {
			created, err = as.Events.CreateRepeating(ctx, event, value.StringValue())
		} else {
			var one model.Event
			one, err = as.Events.NewCreateMutation().Mutate(ctx, event)
			if err == nil {
				created = append(created, one)
			}
		}
		if err != nil && len(created) == 0 {
			utils.InteractRespEdit(s, i.Interaction, "event-create", errorContent("Failed to create the event.", err))
			return err
		}

		content := fmt.Sprintf("Created %d event(s).", len(created))
		if len(created) == 1 {
			content = "Event created."
		}
		if err != nil {
			content += "\n" + errorContent("Some occurrences could not be created.", err)
		}
		embeds := eventEmbeds(created, as.Config.GetLocation(), as.Config.GetImageBaseURL())
		if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Content: &content,
			Embeds:  &embeds,
		}); err != nil {
			slog.Warn("can't respond", "handler", "event-create", "content", "event-created", "error", err)
		}
		return nil
	}
}

// checkImage makes sure name is one of the images the backend can serve.
func checkImage(ctx context.Context, as *utils.AppState, name string) error {
	images, err := as.API.FetchSelectableImages(ctx)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(images))
	for _, image := range images {
		if image.Path == name {
			return nil
		}
		names = append(names, image.Path)
	}
	if len(names) == 0 {
		return fmt.Errorf("no image can be selected")
	}
	return fmt.Errorf("unknown image %q, choose one of: %s", name, utils.Truncate(strings.Join(names, ", "), 200))
}
