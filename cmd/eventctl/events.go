package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"eventdesk/src-client/events"
	"eventdesk/src-client/model"
	"eventdesk/src-client/utils"

	"github.com/spf13/cobra"
)

// eventFlags are the editable fields of an event. Empty flags are left out
// of the patch.
type eventFlags struct {
	title       string
	description string
	date        string
	time        string
	location    string
	image       string
}

func (f *eventFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "title of the event")
	cmd.Flags().StringVar(&f.description, "description", "", "description of the event")
	cmd.Flags().StringVar(&f.date, "date", "", "date of the event, e.g. 2024-05-01 or \"next friday\"")
	cmd.Flags().StringVar(&f.time, "time", "", "time of the event, e.g. 18:30 or 6pm")
	cmd.Flags().StringVar(&f.location, "location", "", "location of the event")
	cmd.Flags().StringVar(&f.image, "image", "", "file name of one of the selectable images")
}

func (f *eventFlags) event(a *app) (model.Event, error) {
	ev := model.Event{
		Title:       utils.CleanupString(f.title),
		Description: strings.TrimSpace(f.description),
		Location:    utils.CleanupString(f.location),
		Image:       strings.TrimSpace(f.image),
	}
	now := time.Now().In(a.loc)
	if f.date != "" {
		date, err := utils.ParseDate(a.when, f.date, now)
		if err != nil {
			return model.Event{}, err
		}
		ev.Date = date
	}
	if f.time != "" {
		tm, err := utils.ParseTime(a.when, f.time, now)
		if err != nil {
			return model.Event{}, err
		}
		ev.Time = tm
	}
	return ev, nil
}

func printEvent(w io.Writer, ev model.Event) {
	fmt.Fprintf(w, "%s  %s %s  %s", ev.ID, ev.Date, ev.Time, ev.Title)
	if ev.Location != "" {
		fmt.Fprintf(w, " @ %s", ev.Location)
	}
	fmt.Fprintln(w)
}

func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [search]",
		Short: "List events, optionally matching a search term",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := ""
			if len(args) == 1 {
				term = args[0]
			}
			list, err := a.events.LoadEvents(cmd.Context(), term)
			if err != nil {
				return err
			}
			for _, ev := range list {
				printEvent(cmd.OutOrStdout(), ev)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no events")
			}
			return nil
		},
	}
}

func viewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "view <event-id>",
		Short: "Show one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := a.events.LoadEvent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printEvent(out, ev)
			if ev.Description != "" {
				fmt.Fprintf(out, "\n%s\n", ev.Description)
			}
			if ev.Image != "" {
				fmt.Fprintf(out, "image: %s\n", ev.Image)
			}
			return nil
		},
	}
}

func createCmd(a *app) *cobra.Command {
	var (
		fields eventFlags
		repeat string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event, or a series of them with --repeat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := fields.event(a)
			if err != nil {
				return err
			}
			if repeat == "" {
				created, err := a.events.NewCreateMutation().Mutate(cmd.Context(), ev)
				if err != nil {
					return err
				}
				printEvent(cmd.OutOrStdout(), created)
				return nil
			}
			created, err := a.events.CreateRepeating(cmd.Context(), ev, repeat)
			for _, c := range created {
				printEvent(cmd.OutOrStdout(), c)
			}
			return err
		},
	}
	fields.register(cmd)
	cmd.Flags().StringVar(&repeat, "repeat", "", fmt.Sprintf("RRULE such as FREQ=WEEKLY;COUNT=4, at most %d events", events.MaxOccurrences))
	return cmd
}

func editCmd(a *app) *cobra.Command {
	var fields eventFlags
	cmd := &cobra.Command{
		Use:   "edit <event-id>",
		Short: "Change some fields of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			patch, err := fields.event(a)
			if err != nil {
				return err
			}
			current, err := a.events.LoadEvent(cmd.Context(), id)
			if err != nil {
				return err
			}
			next := current.Merge(patch)
			if err := next.Validate(); err != nil {
				return err
			}
			if !current.Diff(&patch).Changed() {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to change")
				return nil
			}
			updated, err := a.events.NewUpdateMutation().Mutate(cmd.Context(), events.UpdateInput{ID: id, Event: next})
			if err != nil {
				return fmt.Errorf("update failed, nothing was changed: %w", err)
			}
			printEvent(cmd.OutOrStdout(), updated)
			return nil
		},
	}
	fields.register(cmd)
	return cmd
}

func deleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <event-id>",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.events.NewDeleteMutation().Mutate(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
