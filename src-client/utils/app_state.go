package utils

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"sync"
	"time"

	"eventdesk/src-client/api"
	"eventdesk/src-client/events"
	"eventdesk/src-client/model"
	"eventdesk/src-client/query"

	"github.com/bwmarrin/discordgo"
	"github.com/olebedev/when"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

type HandlerFunc = func(s *discordgo.Session, i *discordgo.InteractionCreate) error

type AppState struct {
	Config    *Config
	RawDB     *sql.DB
	BunDB     *bun.DB
	DgSession *discordgo.Session
	When      *when.Parser

	API     *api.Client
	Cache   *query.Cache
	Journal *events.Journal
	Events  *events.Service

	MetricChans *MetricChans
	Watches     *Watches

	// signals the app to shut down, see main
	AppCloseSignalChan chan os.Signal

	mu sync.RWMutex
	// will be send to Discord
	appCmdInfo map[string]*discordgo.ApplicationCommand
	// handling slash commands, buttons and modals from Discord WSAPI by name or custom ID
	appCmdHandler map[string]HandlerFunc

	gracefulShutdownChans []chan struct{}
	startedAt             time.Time
}

// NewAppState wires every shared dependency. cacheOpts are appended to the
// options derived from Config, so callers can attach metrics.
func NewAppState(cacheOpts ...query.Option) *AppState {
	as := &AppState{
		appCmdInfo:         make(map[string]*discordgo.ApplicationCommand),
		appCmdHandler:      make(map[string]HandlerFunc),
		AppCloseSignalChan: make(chan os.Signal, 1),
		MetricChans:        NewMetricChans(),
		startedAt:          time.Now(),
	}

	// date parser
	as.When = NewWhenParser()

	// env
	as.Config = NewConfig()

	// database
	var err error
	as.RawDB, err = sql.Open(sqliteshim.ShimName, as.Config.GetSqlitePath()+"?mode=rwc")
	if err != nil {
		slog.Error("cannot open sqlite database", "error", err)
		os.Exit(1)
	}
	as.RawDB.SetMaxIdleConns(8)

	as.BunDB = bun.NewDB(as.RawDB, sqlitedialect.New())
	as.BunDB.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithVerbose(true),
		bundebug.FromEnv("BUNDEBUG"),
	))
	if err := model.CreateSchema(context.Background(), as.BunDB); err != nil {
		slog.Error("can't create database schema", "error", err)
		os.Exit(1)
	}

	// query cache & backend
	as.API = api.NewClient(
		as.Config.GetApiURL(),
		as.Config.GetApiTimeout(),
		api.WithLatencyObserver(func(endpoint string, latency time.Duration) {
			as.MetricChans.SendApiRequest(endpoint, latency)
		}),
	)
	as.Cache = query.NewCache(append([]query.Option{
		query.WithStaleTime(as.Config.GetQueryStaleTime()),
		query.WithCascade(as.Config.GetInvalidateCascade()),
		query.WithLogger(slog.Default().With("component", "query")),
	}, cacheOpts...)...)
	as.Journal = events.NewJournal(as.BunDB, events.WithDatabaseLatency(func(write bool, latency time.Duration) {
		if write {
			as.MetricChans.SendDatabaseWrite(latency)
			return
		}
		as.MetricChans.SendDatabaseRead(latency)
	}))
	as.Events = events.NewService(as.Cache, as.API, as.Journal, as.Config.GetLocation())

	// live messages
	as.Watches = NewWatches(5*time.Minute, as.RemoveAppCmdHandler)
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gracefulShutdownCh:
				as.Watches.CloseAll()
				return
			case <-ticker.C:
				as.Watches.Expire(time.Now())
			}
		}
	}()

	// discord
	if token := as.Config.GetDiscordAppToken(); token != "" {
		as.DgSession, err = discordgo.New("Bot " + token)
		if err != nil {
			slog.Error("can't create discord session", "error", err)
			os.Exit(1)
		}
	}

	return as
}

func (as *AppState) GetUptime() time.Duration {
	return time.Since(as.startedAt).Round(time.Second)
}

// #region - slash commands & interaction handlers

func (as *AppState) AddAppCmdInfo(name string, info *discordgo.ApplicationCommand) {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.appCmdInfo[name] = info
}

func (as *AppState) IterateAppCmdInfo(fn func(name string, info *discordgo.ApplicationCommand)) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	for name, info := range as.appCmdInfo {
		fn(name, info)
	}
}

// NukeAppCmdInfo drops the command descriptions once they were sent to Discord.
func (as *AppState) NukeAppCmdInfo() {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.appCmdInfo = make(map[string]*discordgo.ApplicationCommand)
}

func (as *AppState) AddAppCmdHandler(id string, handler HandlerFunc) {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.appCmdHandler[id] = handler
}

func (as *AppState) GetAppCmdHandler(id string) (HandlerFunc, bool) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	handler, ok := as.appCmdHandler[id]
	return handler, ok
}

func (as *AppState) RemoveAppCmdHandler(id string) {
	as.mu.Lock()
	defer as.mu.Unlock()
	delete(as.appCmdHandler, id)
}

// #endregion

// #region - graceful shutdown

// CreateGracefulShutdownChan returns a channel closed by GracefulShutdown.
func (as *AppState) CreateGracefulShutdownChan() <-chan struct{} {
	as.mu.Lock()
	defer as.mu.Unlock()
	ch := make(chan struct{})
	as.gracefulShutdownChans = append(as.gracefulShutdownChans, ch)
	return ch
}

func (as *AppState) GracefulShutdown() {
	as.mu.Lock()
	chans := as.gracefulShutdownChans
	as.gracefulShutdownChans = nil
	as.mu.Unlock()
	for _, ch := range chans {
		close(ch)
	}

	if as.DgSession != nil {
		if err := as.DgSession.Close(); err != nil {
			slog.Warn("can't close discord session", "error", err)
		}
	}
	if err := as.BunDB.Close(); err != nil {
		slog.Warn("can't close database", "error", err)
	}
}

// #endregion
