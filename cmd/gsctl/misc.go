package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	h3mapper "github.com/mohammed-shakir/geoserver-catalog/internal/mapper/h3"
	"github.com/mohammed-shakir/geoserver-catalog/pkg/shapefile"
)

func newShapefileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shapefile",
		Short: "Read metadata from local shapefiles",
	}
	var (
		res      int
		maxCells int
	)
	bounds := &cobra.Command{
		Use:   "bounds FILE",
		Short: "Print the envelope and EPSG code of a .shp or zipped shapefile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			box, err := shapefile.BoundsOf(args[0])
			if err != nil {
				return err
			}
			srid, err := shapefile.SRIDOf(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "bounds: %s\n", box)
			if srid != 0 {
				fmt.Fprintf(out, "srs:    EPSG:%d\n", srid)
			} else {
				fmt.Fprintln(out, "srs:    unknown")
			}
			if res < 0 {
				return nil
			}
			if srid != 4326 {
				return fmt.Errorf("h3 cover needs WGS 84 data, got EPSG:%d", srid)
			}
			cells, used, err := h3mapper.New().Cover(box, res, maxCells)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "h3:     %d cells at res %d\n", len(cells), used)
			return nil
		},
	}
	bounds.Flags().IntVar(&res, "h3-res", -1, "Also print the H3 cover at this resolution")
	bounds.Flags().IntVar(&maxCells, "h3-max-cells", 512, "Coarsen the H3 cover to at most this many cells")
	cmd.AddCommand(bounds)
	return cmd
}

func newReloadCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Make GeoServer re-read its configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := opts.catalog(cmd)
			if err != nil {
				return err
			}
			return cat.Reload(cmd.Context())
		},
	}
}

func newResetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop GeoServer's store, raster and schema caches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := opts.catalog(cmd)
			if err != nil {
				return err
			}
			return cat.Reset(cmd.Context())
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gsctl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gsctl %s (%s)\n", Version, runtime.Version())
		},
	}
}
