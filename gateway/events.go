package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// ChangeEventsTopic carries row-level change events between processes.
const ChangeEventsTopic = "change-events"

// ChangeEvent is the Kafka wire format: the event plus the scope channel it
// must be re-published on by the changefeed worker.
type ChangeEvent struct {
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
}

// ChangeEventProducer queues change events onto Kafka with a worker pool so
// writes never block on the broker.
type ChangeEventProducer struct {
	writer       *kafka.Writer
	eventChan    chan ChangeEvent
	workerCount  int
	shutdownChan chan struct{}
	wg           sync.WaitGroup
}

// NewChangeEventProducer creates a producer with a running worker pool.
func NewChangeEventProducer(broker string) *ChangeEventProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	p := &ChangeEventProducer{
		writer:       writer,
		eventChan:    make(chan ChangeEvent, 1000),
		workerCount:  10,
		shutdownChan: make(chan struct{}),
	}

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	logrus.Infof("change-event producer started %d workers", p.workerCount)

	return p
}

// worker drains the queue until shutdown.
func (p *ChangeEventProducer) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case ce := <-p.eventChan:
			if err := p.sendSync(ce); err != nil {
				logrus.WithError(err).Warnf("change-event worker %d: send failed", id)
			}
		case <-p.shutdownChan:
			return
		}
	}
}

// Send queues a change event asynchronously (non-blocking).
func (p *ChangeEventProducer) Send(scope Scope, event Event) error {
	select {
	case p.eventChan <- ChangeEvent{Channel: scope.Channel(), Event: event}:
		return nil
	default:
		// Queue full - drop event
		return fmt.Errorf("change event queue full, event dropped")
	}
}

// sendSync writes a change event to Kafka (called by workers).
func (p *ChangeEventProducer) sendSync(ce ChangeEvent) error {
	message, err := json.Marshal(ce)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	msg := kafka.Message{
		Topic: ChangeEventsTopic,
		Key:   []byte(ce.Channel),
		Value: message,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ce.Event.Type)},
			{Key: "table", Value: []byte(ce.Event.Table)},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write change event to Kafka: %w", err)
	}
	return nil
}

// Close gracefully shuts down the producer and its workers.
func (p *ChangeEventProducer) Close() error {
	close(p.shutdownChan)
	p.wg.Wait()
	close(p.eventChan)

	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka writer: %w", err)
	}
	return nil
}
