package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/financeai/backoffice/gateway"
	"github.com/financeai/backoffice/services/notifications"
	"github.com/financeai/backoffice/shared/models"
)

// NotificationStore holds the signed-in user's notification list and the
// derived unread count. The count is always recomputed from the list, never
// adjusted incrementally.
type NotificationStore struct {
	svc *notifications.Service

	mu          sync.Mutex
	state       State
	err         error
	items       []models.Notification
	unreadCount int
	unsub       gateway.UnsubscribeFunc
}

// NewNotificationStore builds an idle notification store.
func NewNotificationStore(svc *notifications.Service) *NotificationStore {
	return &NotificationStore{svc: svc}
}

// State returns the lifecycle phase and, when Failed, the captured error.
func (s *NotificationStore) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.err
}

// Items returns the current list, newest first.
func (s *NotificationStore) Items() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.items...)
}

// UnreadCount returns how many notifications are unread.
func (s *NotificationStore) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unreadCount
}

// Fetch loads the user's notifications. The service already degrades to an
// empty list on error, so Fetch always lands in Ready.
func (s *NotificationStore) Fetch(ctx context.Context, userID uuid.UUID) {
	s.mu.Lock()
	s.state = Loading
	s.err = nil
	s.mu.Unlock()

	items := s.svc.FindAll(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Ready
	s.items = items
	s.recountLocked()
}

// MarkAsRead flips one notification and recomputes the unread count. A
// backend failure leaves local state untouched.
func (s *NotificationStore) MarkAsRead(ctx context.Context, id uuid.UUID) {
	if err := s.svc.MarkAsRead(ctx, id); err != nil {
		logrus.WithError(err).WithField("notification_id", id).Error("falha ao marcar como lida")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Read = true
			break
		}
	}
	s.recountLocked()
}

// Delete removes one notification and recomputes the unread count.
func (s *NotificationStore) Delete(ctx context.Context, id uuid.UUID) {
	if err := s.svc.Delete(ctx, id); err != nil {
		logrus.WithError(err).WithField("notification_id", id).Error("falha ao deletar notificação")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	s.recountLocked()
}

// Add merges an inbound realtime notification, deduplicating by id. New
// entries are prepended (list is newest-first).
func (s *NotificationStore) Add(notification models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == notification.ID {
			s.items[i] = notification
			s.recountLocked()
			return
		}
	}
	s.items = append([]models.Notification{notification}, s.items...)
	s.recountLocked()
}

// Subscribe opens the realtime subscription for the user, replacing any
// previous one. Inbound events flow through Add.
func (s *NotificationStore) Subscribe(userID uuid.UUID) {
	unsub := s.svc.Subscribe(userID, s.Add)

	s.mu.Lock()
	if s.unsub != nil {
		s.unsub()
	}
	s.unsub = unsub
	s.mu.Unlock()
}

// Dispose tears down the live subscription. Safe to call repeatedly.
func (s *NotificationStore) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
}

func (s *NotificationStore) recountLocked() {
	count := 0
	for i := range s.items {
		if !s.items[i].Read {
			count++
		}
	}
	s.unreadCount = count
}
