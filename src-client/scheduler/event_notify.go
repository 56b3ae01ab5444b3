package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"eventdesk/src-client/events"
	"eventdesk/src-client/model"
	"eventdesk/src-client/query"
	"eventdesk/src-client/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/uptrace/bun"
)

const notifyInterval = 30 * time.Second

// EventNotify announces events starting within NOTIFY_AHEAD in the
// NOTIFY_CHANNEL_ID channel, once per event start. It returns when the app
// shuts down.
func EventNotify(as *utils.AppState) {
	channelID := as.Config.GetNotifyChannelID()
	if as.DgSession == nil || channelID == "" {
		return
	}
	n := &notifier{
		events:       as.Events,
		db:           as.BunDB,
		ahead:        as.Config.GetNotifyAhead(),
		imageBaseURL: as.Config.GetImageBaseURL(),
		send: func(embeds []*discordgo.MessageEmbed) error {
			startTimer := time.Now()
			if _, err := as.DgSession.ChannelMessageSendEmbeds(channelID, embeds); err != nil {
				return err
			}
			as.MetricChans.SendDiscordSendMessage(startTimer)
			return nil
		},
	}

	gracefulShutdownCh := as.CreateGracefulShutdownChan()
	ticker := time.NewTicker(notifyInterval)
	defer ticker.Stop()
	for {
		select {
		case <-gracefulShutdownCh:
			return
		case now := <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), notifyInterval)
			if count, err := n.notify(ctx, now); err != nil {
				slog.Error("EventNotify: can't announce events", "error", err)
			} else if count > 0 {
				slog.Info("EventNotify: events announced", "count", count)
			}
			cancel()
		}
	}
}

type notifier struct {
	events       *events.Service
	db           bun.IDB
	ahead        time.Duration
	imageBaseURL string
	send         func(embeds []*discordgo.MessageEmbed) error
}

type upcoming struct {
	event    model.Event
	startsAt time.Time
}

// dueEvents picks the events starting in [now, now+ahead) that were not
// announced yet, earliest first.
func dueEvents(list []model.Event, loc *time.Location, now time.Time, ahead time.Duration, sent map[model.SentNotification]bool) []upcoming {
	var due []upcoming
	for _, ev := range list {
		start, err := ev.StartsAt(loc)
		if err != nil {
			continue
		}
		if start.Before(now) || !start.Before(now.Add(ahead)) {
			continue
		}
		if sent[model.SentNotification{EventID: ev.ID, StartsAt: start.Unix()}] {
			continue
		}
		due = append(due, upcoming{event: ev, startsAt: start})
	}
	sort.Slice(due, func(i, j int) bool { return due[i].startsAt.Before(due[j].startsAt) })
	return due
}

// notify sends one message for every due event and records them as sent.
func (n *notifier) notify(ctx context.Context, now time.Time) (int, error) {
	// reminders must not rely on a list cached before someone else edited it
	if err := n.events.Cache.Invalidate(ctx, events.AllKey, query.Exact(), query.WithoutRefetch()); err != nil {
		return 0, fmt.Errorf("notify: %w", err)
	}
	list, err := n.events.LoadEvents(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("notify: %w", err)
	}
	sent, err := model.SentNotificationsSince(ctx, n.db, now)
	if err != nil {
		return 0, fmt.Errorf("notify: %w", err)
	}

	due := dueEvents(list, n.events.Location, now, n.ahead, sent)
	if len(due) == 0 {
		return 0, nil
	}

	// Discord refuses more than 10 embeds per message
	rows := make([]model.SentNotification, 0, len(due))
	for begin := 0; begin < len(due); begin += 10 {
		end := min(begin+10, len(due))
		embeds := make([]*discordgo.MessageEmbed, 0, end-begin)
		for _, u := range due[begin:end] {
			embed := u.event.ToDiscordEmbed(n.events.Location, n.imageBaseURL)
			embed.Title = "Starting soon: " + embed.Title
			embeds = append(embeds, embed)
		}
		if err := n.send(embeds); err != nil {
			return len(rows), fmt.Errorf("notify: can't send message: %w", err)
		}
		for _, u := range due[begin:end] {
			rows = append(rows, model.SentNotification{EventID: u.event.ID, StartsAt: u.startsAt.Unix()})
		}
		if err := model.InsertSentNotifications(ctx, n.db, rows[len(rows)-(end-begin):]); err != nil {
			return len(rows), fmt.Errorf("notify: %w", err)
		}
	}
	return len(rows), nil
}
