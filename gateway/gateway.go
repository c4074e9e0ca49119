package gateway

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Gateway is the thin client for the hosted relational backend. It owns the
// database handle, the realtime feed and the change-event producer; domain
// services issue all their reads and writes through it. Authorization is
// delegated to the backend's row-level security policies.
type Gateway struct {
	db       *gorm.DB
	feed     Feed
	producer *ChangeEventProducer
}

// New wires a gateway. feed must not be nil; producer may be nil when the
// change-event pipeline is not configured (tests, local dev).
func New(db *gorm.DB, feed Feed, producer *ChangeEventProducer) *Gateway {
	return &Gateway{db: db, feed: feed, producer: producer}
}

// DB returns the backend database handle.
func (g *Gateway) DB() *gorm.DB {
	return g.db
}

// Feed returns the realtime subscription primitive.
func (g *Gateway) Feed() Feed {
	return g.feed
}

// NotifyInsert publishes a row-insert event for the given scope on the
// local feed and, when configured, onto the change-event pipeline. Failures
// are logged and swallowed: delivery of realtime events is best-effort and
// must never fail the write that produced them.
func (g *Gateway) NotifyInsert(scope Scope, row interface{}) {
	payload, err := json.Marshal(row)
	if err != nil {
		logrus.WithError(err).WithField("table", scope.Table).Error("failed to encode change event")
		return
	}

	event := Event{
		Table:   scope.Table,
		Type:    EventInsert,
		Payload: payload,
	}

	g.feed.Publish(scope, event)

	if g.producer != nil {
		if err := g.producer.Send(scope, event); err != nil {
			logrus.WithError(err).WithField("table", scope.Table).Warn("change event not queued")
		}
	}
}

// SetTenantContext sets the per-connection tenant context used by the
// backend's row-level security policies. It is the only place besides the
// auth middleware allowed to touch it.
func (g *Gateway) SetTenantContext(tenantID string) {
	g.db.Exec("SELECT set_tenant_context(?)", tenantID)
}
