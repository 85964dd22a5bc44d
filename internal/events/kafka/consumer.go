package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/geoserver-catalog/internal/core/observability"
	mylog "github.com/mohammed-shakir/geoserver-catalog/internal/logger"
)

// Handler receives each decoded change event. A non-nil error stops the
// claim before the offset is marked, so the message is redelivered.
type Handler func(context.Context, WireEvent) error

// Watcher reads WireEvents back from the topic in a consumer group.
type Watcher struct {
	cfg    Config
	log    *slog.Logger
	handle Handler
	// retry is the pause between failed Consume rounds.
	retry time.Duration
}

func NewWatcher(cfg Config, logger *slog.Logger, h Handler) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{cfg: cfg, log: logger, handle: h, retry: 2 * time.Second}
}

// Run consumes until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if w.handle == nil {
		return errors.New("kafka watcher: no handler")
	}
	if len(w.cfg.Brokers) == 0 {
		return errors.New("kafka: no brokers configured")
	}

	sc := sarama.NewConfig()
	sc.ClientID = w.cfg.ClientID
	sc.Version = sarama.V3_6_0_0
	sc.Consumer.Group.Session.Timeout = 30 * time.Second
	sc.Consumer.Group.Heartbeat.Interval = 3 * time.Second
	sc.Consumer.Group.Rebalance.Timeout = 30 * time.Second
	sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	if w.cfg.FromOldest {
		sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	}
	sc.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(w.cfg.Brokers, w.cfg.GroupID, sc)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	ctx = mylog.WithComponent(ctx, "kafka_watch")
	gh := &groupHandler{process: w.ProcessOne}
	w.log.InfoContext(ctx, "catalog event watcher starting",
		"brokers", w.cfg.Brokers, "topic", w.cfg.Topic, "group", w.cfg.GroupID)

	for {
		if err := group.Consume(ctx, []string{w.cfg.Topic}, gh); err != nil && ctx.Err() == nil {
			w.log.ErrorContext(ctx, "consumer error", "err", err)
			select {
			case <-ctx.Done():
			case <-time.After(w.retry):
			}
		}
		if ctx.Err() != nil {
			w.log.InfoContext(ctx, "catalog event watcher stopped")
			return nil
		}
	}
}

// ProcessOne decodes one message and hands it to the handler.
func (w *Watcher) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev WireEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		observability.IncEventConsumed("decode")
		// a poison message is logged and skipped
		w.log.ErrorContext(ctx, "undecodable catalog event",
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
		return nil
	}
	if err := w.handle(ctx, ev); err != nil {
		observability.IncEventConsumed("handler")
		return fmt.Errorf("handle %s %s: %w", ev.Op, ev.Path, err)
	}
	observability.IncEventConsumed("ok")
	return nil
}

type messageProcessor func(context.Context, *sarama.ConsumerMessage) error

type groupHandler struct {
	process messageProcessor
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim processes one partition in order and marks each offset only
// after its message was handled.
func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.process(ctx, msg); err != nil {
				return fmt.Errorf("process failed (topic=%s, part=%d, off=%d): %w",
					msg.Topic, msg.Partition, msg.Offset, err)
			}
			sess.MarkMessage(msg, "")
		}
	}
}
