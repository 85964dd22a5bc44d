package kafka

import "github.com/mohammed-shakir/geoserver-catalog/internal/core/config/env"

type Config struct {
	Enabled  bool     `yaml:"enabled"`
	Brokers  []string `yaml:"brokers"`
	Topic    string   `yaml:"topic"`
	ClientID string   `yaml:"client_id"`
	// Res is the H3 resolution of the event cover.
	Res int `yaml:"h3_res"`
	// MaxCells bounds the cover; coarser cells are used beyond it.
	MaxCells int `yaml:"max_cells"`
	// GroupID names the consumer group of Watch.
	GroupID string `yaml:"group_id"`
	// FromOldest starts a new group at the oldest offset.
	FromOldest bool `yaml:"from_oldest"`
}

func FromEnv() Config {
	return Config{
		Enabled:  env.Bool("EVENTS_ENABLED", false),
		Brokers:  env.List("KAFKA_BROKERS", []string{"localhost:9092"}),
		Topic:    env.String("KAFKA_TOPIC", "spatial-invalidation"),
		ClientID: "geoserver-catalog",
		Res:      env.Int("H3_RES", 8),
		MaxCells: env.Int("H3_MAX_CELLS", 512),
		GroupID:  env.String("KAFKA_GROUP_ID", "geoserver-catalog-watch"),
	}
}
