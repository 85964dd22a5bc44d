// Package config reads the process configuration from the environment and
// an optional YAML file layered on top.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/mohammed-shakir/geoserver-catalog/internal/core/config/env"
	"github.com/mohammed-shakir/geoserver-catalog/internal/events/kafka"
	"github.com/mohammed-shakir/geoserver-catalog/internal/logger"
)

type GeoServer struct {
	// URL is the REST root.
	URL            string        `yaml:"url"`
	GeoWebCacheURL string        `yaml:"gwc_url"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	Timeout        time.Duration `yaml:"timeout"`
}

// Fake configures the in-memory GeoServer.
type Fake struct {
	Addr             string `yaml:"addr"`
	DefaultWorkspace string `yaml:"default_workspace"`
	// Seed preloads the topp sample workspace.
	Seed bool `yaml:"seed"`
}

type Config struct {
	GeoServer GeoServer     `yaml:"geoserver"`
	Log       logger.Config `yaml:"log"`
	Events    kafka.Config  `yaml:"events"`
	Fake      Fake          `yaml:"fake"`
}

const defaultURL = "http://localhost:8080/geoserver/rest"

func FromEnv() Config {
	url := env.String("GEOSERVER_URL", defaultURL)
	return Config{
		GeoServer: GeoServer{
			URL:            url,
			GeoWebCacheURL: env.String("GEOWEBCACHE_URL", DefaultGWCURL(url)),
			User:           env.String("GEOSERVER_USER", "admin"),
			Password:       env.String("GEOSERVER_PASSWORD", "geoserver"),
			Timeout:        env.Duration("HTTP_TIMEOUT", 30*time.Second),
		},
		Log: logger.Config{
			Level:   env.String("LOG_LEVEL", "info"),
			Console: env.Bool("LOG_CONSOLE", false),
			SampleN: env.Int("LOG_SAMPLE_N", 0),
		},
		Events: kafka.FromEnv(),
		Fake: Fake{
			Addr:             env.String("ADDR", ":8080"),
			DefaultWorkspace: env.String("FAKE_DEFAULT_WORKSPACE", ""),
			Seed:             env.Bool("FAKE_SEED", false),
		},
	}
}

// Load reads FromEnv and overlays the YAML file at path. Keys absent from
// the file keep their environment value. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := FromEnv()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	url := cfg.GeoServer.URL
	gwc := cfg.GeoServer.GeoWebCacheURL
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	// a file that moves the REST root without naming GWC moves GWC with it
	if cfg.GeoServer.URL != url && cfg.GeoServer.GeoWebCacheURL == gwc && os.Getenv("GEOWEBCACHE_URL") == "" {
		cfg.GeoServer.GeoWebCacheURL = DefaultGWCURL(cfg.GeoServer.URL)
	}
	return cfg, nil
}

// DefaultGWCURL derives .../geoserver/gwc/rest from .../geoserver/rest.
func DefaultGWCURL(restURL string) string {
	base := strings.TrimRight(restURL, "/")
	if root, ok := strings.CutSuffix(base, "/rest"); ok {
		return root + "/gwc/rest"
	}
	return base + "/gwc/rest"
}
