package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// EventInsert is the only event type the back-office consumes today; the
// wire contract also defines UPDATE and DELETE.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// Event is a row-level change delivered by the realtime feed. Payload is
// shaped like the corresponding entity row.
type Event struct {
	Table   string          `json:"table"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Scope selects the rows a subscription is interested in: a table plus a
// single column equality filter, e.g. chat_messages where room_id = X.
type Scope struct {
	Table  string
	Column string
	Value  string
}

// Channel returns the wire channel name for the scope.
func (s Scope) Channel() string {
	return fmt.Sprintf("realtime:%s:%s=eq.%s", s.Table, s.Column, s.Value)
}

// UnsubscribeFunc tears down a subscription. Implementations are
// idempotent: calling it a second time is a no-op.
type UnsubscribeFunc func()

// Feed is the realtime subscription primitive exposed by the gateway.
type Feed interface {
	// Subscribe registers a handler for insert events matching the scope
	// and returns its disposer.
	Subscribe(scope Scope, handler func(Event)) UnsubscribeFunc
	// Publish delivers an event to every subscriber of the scope.
	Publish(scope Scope, event Event)
}

// LocalFeed is an in-process feed. It backs single-node deployments and
// tests; the changefeed worker bridges cross-process events into it via
// RedisFeed.
type LocalFeed struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func(Event)
}

// NewLocalFeed creates an empty in-process feed.
func NewLocalFeed() *LocalFeed {
	return &LocalFeed{subs: make(map[string]map[int]func(Event))}
}

// Subscribe registers a handler for the scope.
func (f *LocalFeed) Subscribe(scope Scope, handler func(Event)) UnsubscribeFunc {
	channel := scope.Channel()

	f.mu.Lock()
	f.nextID++
	id := f.nextID
	if f.subs[channel] == nil {
		f.subs[channel] = make(map[int]func(Event))
	}
	f.subs[channel][id] = handler
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs[channel], id)
			if len(f.subs[channel]) == 0 {
				delete(f.subs, channel)
			}
		})
	}
}

// Publish delivers the event synchronously to current subscribers.
func (f *LocalFeed) Publish(scope Scope, event Event) {
	f.mu.RLock()
	handlers := make([]func(Event), 0, len(f.subs[scope.Channel()]))
	for _, h := range f.subs[scope.Channel()] {
		handlers = append(handlers, h)
	}
	f.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// SubscriberCount reports the live subscriptions for a scope.
func (f *LocalFeed) SubscriberCount(scope Scope) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs[scope.Channel()])
}

// RedisFeed delivers events across processes over Redis pub/sub, one
// channel per scope.
type RedisFeed struct {
	client *redis.Client
}

// NewRedisFeed creates a feed backed by the given Redis client.
func NewRedisFeed(client *redis.Client) *RedisFeed {
	return &RedisFeed{client: client}
}

// Subscribe opens a pub/sub channel for the scope and pumps decoded events
// into the handler until the disposer is called.
func (f *RedisFeed) Subscribe(scope Scope, handler func(Event)) UnsubscribeFunc {
	pubsub := f.client.Subscribe(context.Background(), scope.Channel())

	go func() {
		for msg := range pubsub.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logrus.WithError(err).WithField("channel", msg.Channel).Warn("dropping malformed realtime event")
				continue
			}
			handler(event)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := pubsub.Close(); err != nil {
				logrus.WithError(err).Warn("failed to close realtime subscription")
			}
		})
	}
}

// PublishChannel broadcasts on an already-materialized channel name. The
// changefeed worker uses it to relay events whose scope it never decodes.
func (f *RedisFeed) PublishChannel(channel string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("failed to encode realtime event")
		return
	}
	if err := f.client.Publish(context.Background(), channel, payload).Err(); err != nil {
		logrus.WithError(err).WithField("channel", channel).Warn("realtime publish failed")
	}
}

// Publish broadcasts the event on the scope's channel.
func (f *RedisFeed) Publish(scope Scope, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("failed to encode realtime event")
		return
	}
	if err := f.client.Publish(context.Background(), scope.Channel(), payload).Err(); err != nil {
		logrus.WithError(err).WithField("channel", scope.Channel()).Warn("realtime publish failed")
	}
}
