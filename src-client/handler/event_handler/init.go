package event_handler

import (
	"eventdesk/src-client/utils"

	"github.com/bwmarrin/discordgo"
)

// Init injects one "event" slash command with multiple subcommands
// into appCmdInfo and appCmdHandler in AppState.
func Init(as *utils.AppState) {
	// works similar to how we create a new slash command using
	// appCmdInfo and appCmdHandler in AppState.
	localCmdInfo := make(
		[]*discordgo.ApplicationCommandOption, 0,
	)
	localCmdHandler := make(
		map[string]utils.HandlerFunc,
	)

	// injecting info and handler into 2 local maps
	list(as, &localCmdInfo, localCmdHandler)
	view(as, &localCmdInfo, localCmdHandler)
	create(as, &localCmdInfo, localCmdHandler)
	edit(as, &localCmdInfo, localCmdHandler)
	delete(as, &localCmdInfo, localCmdHandler)
	watch(as, &localCmdInfo, localCmdHandler)
	history(as, &localCmdInfo, localCmdHandler)

	id := "event"
	as.AddAppCmdInfo(id, &discordgo.ApplicationCommand{
		Name:        id,
		Description: "Event management commands.",
		Options:     localCmdInfo,
	})
	as.AddAppCmdHandler(id, func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		data := i.ApplicationCommandData()
		if len(data.Options) == 0 {
			return nil
		}
		if handler, ok := localCmdHandler[data.Options[0].Name]; ok {
			return handler(s, i)
		}
		return nil
	})
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options[0].Options
	optionMap := make(
		map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options),
	)
	for _, opt := range options {
		optionMap[opt.Name] = opt
	}
	return optionMap
}

func eventIDOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "event-id",
		Description: "ID of the event.",
		Required:    true,
	}
}
