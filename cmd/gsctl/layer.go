package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLayerCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layer",
		Short: "Inspect published layers",
	}
	cmd.AddCommand(newLayerListCommand(opts), newLayerShowCommand(opts))
	return cmd
}

func newLayerListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List layers with their type and default style",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cat, err := opts.catalog(cmd)
			if err != nil {
				return err
			}
			for l, err := range cat.EachLayer(ctx) {
				if err != nil {
					return err
				}
				typ, _ := l.Type(ctx)
				style, _ := l.DefaultStyle(ctx)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", l.Name(), typ, style)
			}
			return nil
		},
	}
}

func newLayerShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show a layer and the resource it publishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cat, err := opts.catalog(cmd)
			if err != nil {
				return err
			}
			l, err := cat.Layer(ctx, args[0])
			if err != nil {
				return err
			}
			if l == nil {
				return fmt.Errorf("layer %q not found", args[0])
			}
			typ, _ := l.Type(ctx)
			enabled, _ := l.Enabled(ctx)
			def, _ := l.DefaultStyle(ctx)
			alts, _ := l.AlternateStyles(ctx)
			res, err := l.ResourceInfo(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "name:          %s\n", l.Name())
			fmt.Fprintf(out, "type:          %s\n", typ)
			fmt.Fprintf(out, "enabled:       %t\n", enabled)
			fmt.Fprintf(out, "default style: %s\n", def)
			if len(alts) > 0 {
				fmt.Fprintf(out, "styles:        %s\n", strings.Join(alts, ", "))
			}
			if res.Name != "" {
				fmt.Fprintf(out, "resource:      %s %s:%s (store %s)\n", res.Kind, res.Workspace, res.Name, res.Store)
			}
			return nil
		},
	}
}

func newStyleCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "style",
		Short: "Inspect styles",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List styles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := opts.catalog(cmd)
			if err != nil {
				return err
			}
			styles, err := cat.Styles(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range styles {
				fmt.Fprintln(cmd.OutOrStdout(), s.Name())
			}
			return nil
		},
	})
	return cmd
}
