package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/geoserver-catalog/internal/catalog"
	"github.com/mohammed-shakir/geoserver-catalog/internal/rest"
)

func newWorkspaceCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "List, create and delete workspaces",
	}
	cmd.AddCommand(newWorkspaceListCommand(opts), newWorkspaceCreateCommand(opts), newWorkspaceDeleteCommand(opts))
	return cmd
}

func newWorkspaceListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workspaces; the default one is starred",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cat, err := opts.catalog(cmd)
			if err != nil {
				return err
			}
			wss, err := cat.Workspaces(ctx)
			if err != nil {
				return err
			}
			def, err := cat.DefaultWorkspace(ctx)
			if err != nil {
				return err
			}
			for _, ws := range wss {
				mark := " "
				if def != nil && def.Name() == ws.Name() {
					mark = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, ws.Name())
			}
			return nil
		},
	}
}

func newWorkspaceCreateCommand(opts *rootOptions) *cobra.Command {
	var makeDefault bool
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a workspace and its namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cat, err := opts.catalog(cmd)
			if err != nil {
				return err
			}
			ws, err := catalog.NewWorkspace(cat, args[0])
			if err != nil {
				return err
			}
			isNew, err := ws.IsNew(ctx)
			if err != nil {
				return err
			}
			if !isNew {
				return fmt.Errorf("workspace %q already exists", ws.Name())
			}
			if err := ws.Save(ctx, rest.Options{}); err != nil {
				return err
			}
			if makeDefault {
				if _, err := cat.SetDefaultWorkspace(ctx, ws.Name()); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created workspace %s\n", ws.Name())
			return nil
		},
	}
	cmd.Flags().BoolVar(&makeDefault, "default", false, "Make the new workspace the default")
	return cmd
}

func newWorkspaceDeleteCommand(opts *rootOptions) *cobra.Command {
	var recurse bool
	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cat, err := opts.catalog(cmd)
			if err != nil {
				return err
			}
			ws, err := cat.Workspace(ctx, args[0])
			if err != nil {
				return err
			}
			if ws == nil {
				return fmt.Errorf("workspace %q not found", args[0])
			}
			if err := ws.Delete(ctx, deleteOptions(recurse)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted workspace %s\n", ws.Name())
			return nil
		},
	}
	cmd.Flags().BoolVar(&recurse, "recurse", false, "Also delete every store, resource and layer in it")
	return cmd
}

func deleteOptions(recurse bool) rest.Options {
	if recurse {
		return rest.Recurse()
	}
	return rest.Options{}
}
