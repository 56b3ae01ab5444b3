package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"eventdesk/src-client/api"
	"eventdesk/src-client/events"
	"eventdesk/src-client/query"
	"eventdesk/src-client/utils"

	"github.com/lmittmann/tint"
	"github.com/olebedev/when"
	"github.com/spf13/cobra"
)

// app is what every subcommand shares once the flags are parsed.
type app struct {
	apiURL   string
	timeout  time.Duration
	location string
	verbose  bool

	events *events.Service
	when   *when.Parser
	loc    *time.Location
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "eventctl",
		Short: "Manage events from the terminal",
		Long: `eventctl lists, shows and edits the events held by the events backend.

Edits and deletions are applied to the local cache first and undone when
the backend refuses them, the same way the Discord bot does it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api-url", os.Getenv("API_URL"), "base URL of the events backend (env API_URL)")
	rootCmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 10*time.Second, "timeout of one backend request")
	rootCmd.PersistentFlags().StringVar(&a.location, "location", os.Getenv("LOCATION"), "time zone of event dates (env LOCATION)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log cache activity")

	rootCmd.AddCommand(
		listCmd(a),
		viewCmd(a),
		createCmd(a),
		editCmd(a),
		deleteCmd(a),
	)
	return rootCmd
}

func (a *app) setup(logOutput io.Writer) error {
	if a.apiURL == "" {
		return fmt.Errorf("no backend given, set --api-url or API_URL")
	}

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(logOutput, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	a.loc = time.Local
	if a.location != "" {
		loc, err := time.LoadLocation(a.location)
		if err != nil {
			return fmt.Errorf("invalid location %q: %w", a.location, err)
		}
		a.loc = loc
	}

	a.when = utils.NewWhenParser()

	cache := query.NewCache(query.WithLogger(logger.With("component", "query")))
	client := api.NewClient(a.apiURL, a.timeout)
	// no journal: the CLI keeps no local database
	a.events = events.NewService(cache, client, nil, a.loc)
	return nil
}
