package event_handler

import (
	"context"
	"log/slog"

	"eventdesk/src-client/utils"

	"github.com/bwmarrin/discordgo"
)

const historyLimit = 10

func history(as *utils.AppState, cmdInfo *[]*discordgo.ApplicationCommandOption, cmdHandler map[string]utils.HandlerFunc) {
	id := "history"
	*cmdInfo = append(*cmdInfo, &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        id,
		Description: "Show the latest changes made to events from here.",
	})
	cmdHandler[id] = func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if err := utils.InteractRespDefer(as, s, i); err != nil {
			slog.Warn("can't respond", "handler", "event-history", "content", "deferring", "error", err)
			return nil
		}
		records, err := as.Journal.Recent(context.Background(), historyLimit)
		if err != nil {
			utils.InteractRespEdit(s, i.Interaction, "event-history", errorContent("Failed to read the history.", err))
			return err
		}
		utils.InteractRespEdit(s, i.Interaction, "event-history", historyContent(records))
		return nil
	}
}
