package event_handler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"eventdesk/src-client/model"
	"eventdesk/src-client/query"
	"eventdesk/src-client/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

func watch(as *utils.AppState, cmdInfo *[]*discordgo.ApplicationCommandOption, cmdHandler map[string]utils.HandlerFunc) {
	id := "watch"
	*cmdInfo = append(*cmdInfo, &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        id,
		Description: "Show an event and keep the message up to date for a few minutes.",
		Options:     []*discordgo.ApplicationCommandOption{eventIDOption()},
	})
	cmdHandler[id] = watchHandler(as)
}

func watchHandler(as *utils.AppState) utils.HandlerFunc {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if err := utils.InteractRespDefer(as, s, i); err != nil {
			slog.Warn("can't respond", "handler", "event-watch", "content", "deferring", "error", err)
			return nil
		}

		eventID := optionMap(i)["event-id"].StringValue()
		watchID := uuid.New()
		refreshCustomId := "refresh-" + watchID.String()
		stopCustomId := "stop-" + watchID.String()

		changed := make(chan struct{}, 1)
		signal := func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		}
		q := as.Events.NewEventQuery(eventID, query.OnChange(func(query.QueryResult[model.Event]) {
			signal()
		}))

		done := make(chan struct{})
		var once sync.Once
		stop := func() {
			once.Do(func() {
				q.Close()
				close(done)
			})
		}

		// #region - renderer
		r := watchRenderer{
			as:          as,
			s:           s,
			interaction: i.Interaction,
			refreshID:   refreshCustomId,
			stopID:      stopCustomId,
		}
		go func() {
			for {
				select {
				case <-done:
					r.render(q.Result(), false)
					return
				case <-changed:
					r.render(q.Result(), true)
				}
			}
		}()
		// #endregion

		// #region - buttons
		as.AddAppCmdHandler(refreshCustomId, func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
			if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseDeferredMessageUpdate,
			}); err != nil {
				slog.Warn("can't respond", "handler", "event-watch", "content", "refresh", "error", err)
			}
			ctx, cancel := context.WithTimeout(context.Background(), as.Config.GetApiTimeout())
			defer cancel()
			// the new state reaches the message through OnChange
			if err := as.Events.Refresh(ctx, eventID); err != nil {
				slog.Warn("can't refresh watched event", "event", eventID, "error", err)
			}
			return nil
		})
		as.AddAppCmdHandler(stopCustomId, func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
			if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseDeferredMessageUpdate,
			}); err != nil {
				slog.Warn("can't respond", "handler", "event-watch", "content", "stop", "error", err)
			}
			as.Watches.Remove(watchID)
			return nil
		})
		// #endregion

		as.Watches.Add(&utils.Watch{
			ID:           watchID,
			EventID:      eventID,
			DateAdded:    time.Now(),
			ComponentIDs: []string{refreshCustomId, stopCustomId},
			Close:        stop,
		})
		q.Activate(context.Background())
		signal()
		return nil
	}
}

type watchRenderer struct {
	as          *utils.AppState
	s           *discordgo.Session
	interaction *discordgo.Interaction
	refreshID   string
	stopID      string
}

// render edits the watch message. live adds the Refresh and Stop buttons.
func (r watchRenderer) render(res query.QueryResult[model.Event], live bool) {
	content := watchContent(res)
	components := []discordgo.MessageComponent{}
	if live {
		components = append(components, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Refresh",
					Style:    discordgo.PrimaryButton,
					CustomID: r.refreshID,
					Disabled: res.IsFetching,
				},
				discordgo.Button{
					Label:    "Stop",
					Style:    discordgo.SecondaryButton,
					CustomID: r.stopID,
				},
			},
		})
	} else {
		content = "No longer updating. " + content
	}

	embeds := []*discordgo.MessageEmbed{}
	if res.HasData {
		embeds = append(embeds, res.Data.ToDiscordEmbed(r.as.Config.GetLocation(), r.as.Config.GetImageBaseURL()))
	}
	startTimer := time.Now()
	if _, err := r.s.InteractionResponseEdit(r.interaction, &discordgo.WebhookEdit{
		Content:    &content,
		Embeds:     &embeds,
		Components: &components,
	}); err != nil {
		slog.Warn("can't respond", "handler", "event-watch", "content", "watch-render", "error", err)
		return
	}
	r.as.MetricChans.SendDiscordSendMessage(startTimer)
}
