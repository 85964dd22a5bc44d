package main

import (
	"fmt"
	"maps"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/geoserver-catalog/internal/catalog"
	"github.com/mohammed-shakir/geoserver-catalog/internal/rest"
)

func newDataStoreCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "datastore",
		Aliases: []string{"ds"},
		Short:   "List, create and delete vector data stores",
	}
	cmd.AddCommand(newDataStoreListCommand(opts), newDataStoreCreateCommand(opts), newDataStoreDeleteCommand(opts))
	return cmd
}

func newDataStoreListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [WORKSPACE...]",
		Short: "List data stores of the given workspaces, or of all of them",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cat, err := opts.catalog(cmd)
			if err != nil {
				return err
			}
			stores, err := cat.DataStores(ctx, args...)
			if err != nil {
				return err
			}
			for _, ds := range stores {
				typ, err := ds.Type(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%s\t%s\n", ds.Workspace().Name(), ds.Name(), typ)
			}
			return nil
		},
	}
}

func newDataStoreCreateCommand(opts *rootOptions) *cobra.Command {
	var (
		storeType   string
		description string
		shapefile   string
		params      map[string]string
	)
	cmd := &cobra.Command{
		Use:   "create WORKSPACE NAME",
		Short: "Create a data store from connection parameters or a shapefile",
		Example: `  gsctl datastore create topp roads --shapefile /data/roads.shp
  gsctl datastore create topp pg --type PostGIS --param host=db --param database=gis`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cat, err := opts.catalog(cmd)
			if err != nil {
				return err
			}
			ds, err := catalog.NewDataStore(cat, catalog.WorkspaceName(args[0]), args[1])
			if err != nil {
				return err
			}
			isNew, err := ds.IsNew(ctx)
			if err != nil {
				return err
			}
			if !isNew {
				return fmt.Errorf("data store %s:%s already exists", args[0], ds.Name())
			}

			cp := map[string]string{}
			maps.Copy(cp, params)
			if shapefile != "" {
				abs, err := filepath.Abs(shapefile)
				if err != nil {
					return err
				}
				cp["url"] = "file:" + filepath.ToSlash(abs)
				if storeType == "" {
					storeType = "Shapefile"
				}
			}
			if len(cp) == 0 {
				return fmt.Errorf("need --shapefile or at least one --param")
			}
			if err := ds.SetConnectionParameters(ctx, cp); err != nil {
				return err
			}
			if storeType != "" {
				if err := ds.SetType(ctx, storeType); err != nil {
					return err
				}
			}
			if description != "" {
				if err := ds.SetDescription(ctx, description); err != nil {
					return err
				}
			}
			if err := ds.Save(ctx, rest.Options{}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created data store %s:%s\n", args[0], ds.Name())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&storeType, "type", "", "Store type, e.g. Shapefile or PostGIS")
	f.StringVar(&description, "description", "", "Store description")
	f.StringVar(&shapefile, "shapefile", "", "Shapefile the store reads; sets type Shapefile")
	f.StringToStringVar(&params, "param", nil, "Connection parameter key=value, repeatable")
	return cmd
}

func newDataStoreDeleteCommand(opts *rootOptions) *cobra.Command {
	var recurse bool
	cmd := &cobra.Command{
		Use:   "delete WORKSPACE NAME",
		Short: "Delete a data store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cat, err := opts.catalog(cmd)
			if err != nil {
				return err
			}
			ds, err := cat.DataStore(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if ds == nil {
				return fmt.Errorf("data store %s:%s not found", args[0], args[1])
			}
			if err := ds.Delete(ctx, deleteOptions(recurse)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted data store %s:%s\n", args[0], args[1])
			return nil
		},
	}
	cmd.Flags().BoolVar(&recurse, "recurse", false, "Also delete its feature types and layers")
	return cmd
}
