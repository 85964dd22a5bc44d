// Package kafka publishes catalog change events to a Kafka topic so spatial
// caches in front of GeoServer can invalidate the affected cells.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/IBM/sarama"
	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/geoserver-catalog/internal/catalog"
	"github.com/mohammed-shakir/geoserver-catalog/internal/core/observability"
	"github.com/mohammed-shakir/geoserver-catalog/internal/mapper"
	"github.com/mohammed-shakir/geoserver-catalog/pkg/bbox"
)

// Coverer maps a lat/lon extent to at most maxCells H3 cells and reports
// the resolution used.
type Coverer interface {
	Cover(b *bbox.BoundingBox, res, maxCells int) (mapper.Cells, int, error)
}

type Options struct {
	Logger *slog.Logger
	// Coverer is optional; without it events carry no cells.
	Coverer Coverer
}

// Publisher implements catalog.Notifier on a sarama SyncProducer.
type Publisher struct {
	log      *slog.Logger
	producer sarama.SyncProducer
	cover    Coverer
	topic    string
	res      int
	maxCells int
}

var _ catalog.Notifier = (*Publisher)(nil)

// NewProducer dials the brokers of cfg.
func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 3
	sc.Version = sarama.V3_6_0_0
	p, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return p, nil
}

func New(cfg Config, producer sarama.SyncProducer, opts Options) *Publisher {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Publisher{
		log:      opts.Logger,
		producer: producer,
		cover:    opts.Coverer,
		topic:    cfg.Topic,
		res:      cfg.Res,
		maxCells: cfg.MaxCells,
	}
}

// Notify sends one message keyed by the resource path, so all changes of a
// resource land on the same partition in order.
func (p *Publisher) Notify(ctx context.Context, ev catalog.Event) error {
	we, err := p.wireEvent(ev)
	if err != nil {
		observability.IncEventPublished(string(ev.Op), false)
		return err
	}
	body, err := json.Marshal(we)
	if err != nil {
		observability.IncEventPublished(string(ev.Op), false)
		return fmt.Errorf("encode event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(we.Key),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("op"), Value: []byte(we.Op)},
			{Key: []byte("kind"), Value: []byte(ev.Kind)},
		},
		Timestamp: ev.At,
	}
	partition, offset, err := p.producer.SendMessage(msg)
	observability.IncEventPublished(string(ev.Op), err == nil)
	if err != nil {
		return fmt.Errorf("publish %s %s: %w", ev.Op, ev.Path, err)
	}
	p.log.DebugContext(ctx, "catalog event published",
		"op", we.Op, "path", ev.Path, "cells", len(we.H3Cells),
		"partition", partition, "offset", offset)
	return nil
}

func (p *Publisher) Close() error { return p.producer.Close() }

func (p *Publisher) wireEvent(ev catalog.Event) (WireEvent, error) {
	op, err := wireOp(ev.Op)
	if err != nil {
		return WireEvent{}, err
	}
	we := WireEvent{
		Key:     Key(ev.Path),
		Layer:   layerName(ev),
		Kind:    ev.Kind,
		Path:    ev.Path,
		Version: uint64(ev.At.UnixNano()),
		TS:      ev.At.UTC(),
		Op:      op,
	}
	if p.cover != nil && ev.Bounds != nil && !ev.Bounds.IsEmpty() {
		cells, res, err := p.cover.Cover(ev.Bounds, p.res, p.maxCells)
		if err != nil {
			// an extent outside lon/lat range still invalidates by layer
			p.log.Warn("h3 cover failed", "path", ev.Path, "err", err)
		} else {
			we.H3Cells = cells
			we.Resolutions = []int{res}
		}
	}
	return we, nil
}

// Key is the hex xxhash of a resource path.
func Key(path string) string {
	return strconv.FormatUint(xxhash.Sum64String(path), 16)
}

func wireOp(op catalog.Op) (string, error) {
	switch op {
	case catalog.OpCreate:
		return opInsert, nil
	case catalog.OpUpdate:
		return opUpdate, nil
	case catalog.OpDelete:
		return opDelete, nil
	}
	return "", fmt.Errorf("unknown catalog op %q", op)
}

// layerName qualifies feature types and coverages with their workspace,
// the name GeoServer serves them under.
func layerName(ev catalog.Event) string {
	parts := strings.Split(ev.Path, "/")
	if len(parts) >= 2 && parts[0] == "workspaces" && (ev.Kind == "FeatureType" || ev.Kind == "Coverage") {
		return parts[1] + ":" + ev.Name
	}
	return ev.Name
}
