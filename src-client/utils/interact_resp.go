package utils

import (
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
)

// =========================================================
// Pre-built discordgo interaction responses for convenience
// =========================================================

// Send a reply only the invoking user can see.
func InteractRespHiddenReply(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:   discordgo.MessageFlagsEphemeral,
			Content: content,
		},
	}); err != nil {
		slog.Warn("can't respond", "content", "hidden-reply", "error", err)
	}
}

// Defer the reply; the handler edits it later with InteractRespEdit.
func InteractRespDefer(as *AppState, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	startTimer := time.Now()
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		return err
	}
	as.MetricChans.SendDiscordSendMessage(startTimer)
	return nil
}

// Replace the content of the deferred reply, dropping embeds and components.
func InteractRespEdit(s *discordgo.Session, interaction *discordgo.Interaction, handler, content string) {
	if _, err := s.InteractionResponseEdit(interaction, &discordgo.WebhookEdit{
		Content:    &content,
		Embeds:     &[]*discordgo.MessageEmbed{},
		Components: &[]discordgo.MessageComponent{},
	}); err != nil {
		slog.Warn("can't respond", "handler", handler, "content", content, "error", err)
	}
}
