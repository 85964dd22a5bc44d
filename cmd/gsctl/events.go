package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/geoserver-catalog/internal/events/kafka"
)

func newEventsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow catalog change events on Kafka",
	}
	var (
		group      string
		fromOldest bool
	)
	watch := &cobra.Command{
		Use:   "watch",
		Short: "Print change events as they are published, until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.settings(cmd)
			if err != nil {
				return err
			}
			ev := cfg.Events
			if group != "" {
				ev.GroupID = group
			}
			ev.FromOldest = ev.FromOldest || fromOldest
			out := cmd.OutOrStdout()
			w := kafka.NewWatcher(ev, log, func(_ context.Context, we kafka.WireEvent) error {
				return printEvent(out, we)
			})
			return w.Run(cmd.Context())
		},
	}
	watch.Flags().StringVar(&group, "group", "", "Consumer group, overrides KAFKA_GROUP_ID")
	watch.Flags().BoolVar(&fromOldest, "from-oldest", false, "Start a new group at the oldest retained event")
	cmd.AddCommand(watch)
	return cmd
}

func printEvent(w io.Writer, ev kafka.WireEvent) error {
	res := ""
	if len(ev.Resolutions) > 0 {
		res = fmt.Sprintf(" res=%d", ev.Resolutions[0])
	}
	_, err := fmt.Fprintf(w, "%s %-6s %-13s %s cells=%d%s\n",
		ev.TS.UTC().Format("2006-01-02T15:04:05Z"), ev.Op, ev.Kind, ev.Path, len(ev.H3Cells), res)
	return err
}
