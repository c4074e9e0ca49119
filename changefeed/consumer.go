package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/financeai/backoffice/gateway"
)

// ChangeFeedConsumer drains the change-events topic and relays each event
// onto the redis realtime feed, so subscribers in any process see inserts
// made elsewhere.
type ChangeFeedConsumer struct {
	reader *kafka.Reader
	feed   *gateway.RedisFeed
}

// NewChangeFeedConsumer creates a consumer in the changefeed group.
func NewChangeFeedConsumer(broker string, feed *gateway.RedisFeed) *ChangeFeedConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{broker},
		Topic:          gateway.ChangeEventsTopic,
		GroupID:        "changefeed",
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return &ChangeFeedConsumer{reader: reader, feed: feed}
}

// Run consumes until the context is cancelled. Read timeouts are the idle
// case, not errors; real errors back off before retrying.
func (c *ChangeFeedConsumer) Run(ctx context.Context) {
	logrus.Info("changefeed consumer started")

	for {
		if ctx.Err() != nil {
			return
		}

		readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		msg, err := c.reader.ReadMessage(readCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			logrus.WithError(err).Error("changefeed read failed")
			time.Sleep(1 * time.Second)
			continue
		}

		var ce gateway.ChangeEvent
		if err := json.Unmarshal(msg.Value, &ce); err != nil {
			logrus.WithError(err).Warn("dropping malformed change event")
			continue
		}

		c.feed.PublishChannel(ce.Channel, ce.Event)
	}
}

// Close releases the Kafka reader.
func (c *ChangeFeedConsumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("failed to close changefeed reader: %w", err)
	}
	return nil
}
