package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"eventdesk/src-client/handler"
	"eventdesk/src-client/handler/event_handler"
	"eventdesk/src-client/metric"
	"eventdesk/src-client/query"
	"eventdesk/src-client/route"
	"eventdesk/src-client/scheduler"
	"eventdesk/src-client/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	if err := godotenv.Load(); err != nil {
		slog.Info(err.Error())
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC1123Z,
		}),
	))
}

func main() {
	// There are 2 important things (and others) inside the AppState:
	// - Cache: the query cache every view reads through
	// - appCmdHandler: a map of all slash command and button handlers
	as := utils.NewAppState(
		query.WithMetrics(metric.NewQueryMetrics(prometheus.DefaultRegisterer)),
	)

	if as.DgSession != nil {
		startDiscord(as)
	} else {
		slog.Warn("DISCORD_APP_TOKEN is not set, the bot is disabled")
	}

	go metric.Init(as)
	go scheduler.EventNotify(as)

	// http server
	go func() {
		muxer := http.NewServeMux()
		route.Metrics(muxer)
		route.Cache(muxer, as)
		route.Ical(muxer, as)
		if err := http.ListenAndServe(":"+as.Config.GetPort(), muxer); err != nil {
			slog.Error("cannot start HTTP server", "error", err)
			as.AppCloseSignalChan <- syscall.SIGTERM
		}
	}()

	slog.Info("app is now running, press Ctrl+C to exit", "api", as.API.BaseURL())

	signal.Notify(as.AppCloseSignalChan, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-as.AppCloseSignalChan
	as.GracefulShutdown()

	slog.Info("Gracefully shutting down...")
}

func startDiscord(as *utils.AppState) {
	// injecting interaction handlers into appCmdInfo, appCmdHandler in AppState
	event_handler.Init(as)
	handler.Ping(as)

	// tell discordgo how to handle interactions from Discord (w/ appCmdHandler)
	as.DgSession.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		execute := func(id string) {
			if handler, ok := as.GetAppCmdHandler(id); ok {
				if err := handler(s, i); err != nil {
					slog.Error("handler error", "command", id, "error", err.Error())
				}
				return
			}
			if i == nil || i.Interaction == nil {
				return
			}
			utils.InteractRespHiddenReply(s, i, "Expired interaction")
			username := func(i *discordgo.InteractionCreate) string {
				if i.Member != nil && i.Member.User != nil {
					return i.Member.User.Username
				}
				if i.User != nil {
					return i.User.Username
				}
				return "unknown"
			}(i)
			slog.Debug("someone used an expired interaction", "username", username, "custom_id", id)
		}

		switch i.Type {
		case discordgo.InteractionApplicationCommand: // slash commands
			execute(i.ApplicationCommandData().Name)
		case discordgo.InteractionMessageComponent: // buttons
			execute(i.MessageComponentData().CustomID)
		default:
			slog.Error("unknown interaction type", "type", i.Type)
		}
	})

	// open a connection to Discord
	if err := as.DgSession.Open(); err != nil {
		slog.Error("can't open discord connection", "error", err)
		os.Exit(1)
	}

	// tell Discord what commands we have (w/ appCmdInfo)
	var cmds []*discordgo.ApplicationCommand
	as.IterateAppCmdInfo(func(_ string, v *discordgo.ApplicationCommand) {
		cmds = append(cmds, v)
	})
	if _, err := as.DgSession.ApplicationCommandBulkOverwrite(
		as.Config.GetDiscordClientId(),
		as.Config.GetDiscordGuildID(),
		cmds,
	); err != nil {
		slog.Error("can't create slash commands", "error", err.Error())
	}

	// cleanup appCmdInfo from memory
	as.NukeAppCmdInfo()
	runtime.GC()

	slog.Info("number of guilds", "guilds", len(as.DgSession.State.Guilds))
}
