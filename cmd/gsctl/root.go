package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/geoserver-catalog/internal/catalog"
	"github.com/mohammed-shakir/geoserver-catalog/internal/core/config"
	"github.com/mohammed-shakir/geoserver-catalog/internal/core/httpclient"
	"github.com/mohammed-shakir/geoserver-catalog/internal/events/kafka"
	"github.com/mohammed-shakir/geoserver-catalog/internal/logger"
	h3mapper "github.com/mohammed-shakir/geoserver-catalog/internal/mapper/h3"
	"github.com/mohammed-shakir/geoserver-catalog/internal/rest"
)

// rootOptions holds the global flags and the lazily built catalog shared
// by every subcommand.
type rootOptions struct {
	configPath string
	url        string
	user       string
	password   string
	logLevel   string

	cat     *catalog.Catalog
	closers []func() error
}

type rootCommand struct {
	*cobra.Command
	opts *rootOptions
}

func newRootCommand() *rootCommand {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "gsctl",
		Short: "Inspect and edit a GeoServer catalog over its REST API",
		Example: `  # List workspaces, the default one is starred
  gsctl workspace list

  # Register a shapefile store and delete it again
  gsctl datastore create topp roads --shapefile data/roads.shp
  gsctl datastore delete topp roads --recurse`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	f := cmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "YAML config file layered over the environment")
	f.StringVar(&opts.url, "url", "", "GeoServer REST root, e.g. http://localhost:8080/geoserver/rest")
	f.StringVar(&opts.user, "user", "", "GeoServer user")
	f.StringVar(&opts.password, "password", "", "GeoServer password")
	f.StringVar(&opts.logLevel, "log-level", "", "debug|info|warn|error")

	cmd.AddCommand(
		newWorkspaceCommand(opts),
		newDataStoreCommand(opts),
		newLayerCommand(opts),
		newStyleCommand(opts),
		newShapefileCommand(),
		newReloadCommand(opts),
		newResetCommand(opts),
		newEventsCommand(opts),
		newVersionCommand(),
	)
	return &rootCommand{Command: cmd, opts: opts}
}

// settings loads the config file and environment, applies the global
// flags and builds the logger.
func (o *rootOptions) settings(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if o.url != "" {
		cfg.GeoServer.URL = o.url
		if os.Getenv("GEOWEBCACHE_URL") == "" {
			cfg.GeoServer.GeoWebCacheURL = config.DefaultGWCURL(o.url)
		}
	}
	if o.user != "" {
		cfg.GeoServer.User = o.user
	}
	if o.password != "" {
		cfg.GeoServer.Password = o.password
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	cfg.Log.Component = "gsctl"

	zl := logger.Build(cfg.Log, cmd.ErrOrStderr())
	return cfg, logger.NewSlog(&zl), nil
}

// catalog builds the catalog from config and flags on first use.
func (o *rootOptions) catalog(cmd *cobra.Command) (*catalog.Catalog, error) {
	if o.cat != nil {
		return o.cat, nil
	}
	cfg, log, err := o.settings(cmd)
	if err != nil {
		return nil, err
	}

	client, err := rest.New(rest.Config{
		URL:            cfg.GeoServer.URL,
		GeoWebCacheURL: cfg.GeoServer.GeoWebCacheURL,
		User:           cfg.GeoServer.User,
		Password:       cfg.GeoServer.Password,
	}, rest.WithHTTPClient(httpclient.NewOutbound(cfg.GeoServer.Timeout)), rest.WithLogger(log))
	if err != nil {
		return nil, err
	}

	copts := []catalog.Option{catalog.WithLogger(log)}
	if cfg.Events.Enabled {
		n, err := newPublisher(cfg.Events, log)
		if err != nil {
			return nil, err
		}
		o.closers = append(o.closers, n.Close)
		copts = append(copts, catalog.WithNotifier(n))
	}
	o.cat = catalog.New(client, copts...)
	return o.cat, nil
}

func newPublisher(cfg kafka.Config, log *slog.Logger) (*kafka.Publisher, error) {
	producer, err := kafka.NewProducer(cfg)
	if err != nil {
		return nil, fmt.Errorf("change events: %w", err)
	}
	return kafka.New(cfg, producer, kafka.Options{Logger: log, Coverer: h3mapper.New()}), nil
}

func (o *rootOptions) close() error {
	var errs []error
	for _, c := range o.closers {
		errs = append(errs, c())
	}
	o.closers = nil
	return errors.Join(errs...)
}
