package event_handler

import (
	"fmt"
	"log/slog"
	"time"

	"eventdesk/src-client/utils"

	"github.com/bwmarrin/discordgo"
)

const confirmTimeout = 2 * time.Minute

type confirmation struct {
	confirmed bool
	timeout   bool
	// the button press, respond to it to update the message
	interaction *discordgo.Interaction
}

// askForConfirmation edits the deferred reply into a Yes/No question and
// waits for one of the buttons.
func askForConfirmation(as *utils.AppState, s *discordgo.Session, interaction *discordgo.Interaction, customIDSuffix, question string, embeds []*discordgo.MessageEmbed) (confirmation, error) {
	yesCustomId := "yes-" + customIDSuffix
	cancelCustomId := "cancel-" + customIDSuffix
	answerCh := make(chan confirmation, 1)

	// edit the deferred message
	if _, err := s.InteractionResponseEdit(interaction, &discordgo.WebhookEdit{
		Content: &question,
		Embeds:  &embeds,
		Components: &[]discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Yes",
						Style:    discordgo.SuccessButton,
						CustomID: yesCustomId,
					},
					discordgo.Button{
						Label:    "No",
						Style:    discordgo.DangerButton,
						CustomID: cancelCustomId,
					},
				},
			},
		},
	}); err != nil {
		return confirmation{}, fmt.Errorf("can't ask for confirmation: %w", err)
	}

	answer := func(confirmed bool) utils.HandlerFunc {
		return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
			select {
			case answerCh <- confirmation{confirmed: confirmed, interaction: i.Interaction}:
			default:
			}
			return nil
		}
	}
	as.AddAppCmdHandler(yesCustomId, answer(true))
	as.AddAppCmdHandler(cancelCustomId, answer(false))
	defer as.RemoveAppCmdHandler(yesCustomId)
	defer as.RemoveAppCmdHandler(cancelCustomId)

	select {
	case <-time.After(confirmTimeout):
		return confirmation{timeout: true}, nil
	case c := <-answerCh:
		return c, nil
	}
}

// respondUpdate replaces the message the pressed button belongs to.
func respondUpdate(s *discordgo.Session, interaction *discordgo.Interaction, handler, content string, embeds []*discordgo.MessageEmbed) {
	if embeds == nil {
		embeds = []*discordgo.MessageEmbed{}
	}
	if err := s.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Embeds:     embeds,
			Components: []discordgo.MessageComponent{},
		},
	}); err != nil {
		slog.Warn("can't respond", "handler", handler, "content", content, "error", err)
	}
}
