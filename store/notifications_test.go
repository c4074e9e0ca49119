package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/financeai/backoffice/gateway"
	"github.com/financeai/backoffice/services/notifications"
	"github.com/financeai/backoffice/shared/models"
)

func setupNotificationStore(t *testing.T) (*NotificationStore, *notifications.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Notification{}))

	svc := notifications.NewService(gateway.New(db, gateway.NewLocalFeed(), nil))
	return NewNotificationStore(svc), svc
}

func TestFetchComputesUnreadCount(t *testing.T) {
	store, svc := setupNotificationStore(t)
	userID := uuid.New()

	read, err := svc.Create(context.Background(), notifications.CreateNotificationInput{
		UserID: userID, Title: "lida", Type: models.NotificationInfo,
	})
	require.NoError(t, err)
	require.NoError(t, svc.MarkAsRead(context.Background(), read.ID))

	_, err = svc.Create(context.Background(), notifications.CreateNotificationInput{
		UserID: userID, Title: "pendente", Type: models.NotificationWarning,
	})
	require.NoError(t, err)

	store.Fetch(context.Background(), userID)

	state, stateErr := store.State()
	assert.Equal(t, Ready, state)
	assert.NoError(t, stateErr)
	assert.Len(t, store.Items(), 2)
	assert.Equal(t, 1, store.UnreadCount())
}

func TestMarkAsReadRecomputesCount(t *testing.T) {
	store, svc := setupNotificationStore(t)
	userID := uuid.New()

	created, err := svc.Create(context.Background(), notifications.CreateNotificationInput{
		UserID: userID, Title: "nova", Type: models.NotificationInfo,
	})
	require.NoError(t, err)

	store.Fetch(context.Background(), userID)
	require.Equal(t, 1, store.UnreadCount())

	store.MarkAsRead(context.Background(), created.ID)
	assert.Equal(t, 0, store.UnreadCount())

	items := store.Items()
	require.Len(t, items, 1)
	assert.True(t, items[0].Read)
}

func TestDeleteRecomputesCount(t *testing.T) {
	store, svc := setupNotificationStore(t)
	userID := uuid.New()

	first, err := svc.Create(context.Background(), notifications.CreateNotificationInput{
		UserID: userID, Title: "uma", Type: models.NotificationInfo,
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), notifications.CreateNotificationInput{
		UserID: userID, Title: "outra", Type: models.NotificationInfo,
	})
	require.NoError(t, err)

	store.Fetch(context.Background(), userID)
	require.Equal(t, 2, store.UnreadCount())

	store.Delete(context.Background(), first.ID)
	assert.Equal(t, 1, store.UnreadCount())
	assert.Len(t, store.Items(), 1)
}

func TestAddDedupesById(t *testing.T) {
	store, _ := setupNotificationStore(t)

	notification := models.Notification{ID: uuid.New(), Title: "única", Type: models.NotificationInfo}
	store.Add(notification)
	store.Add(notification)

	assert.Len(t, store.Items(), 1)
	assert.Equal(t, 1, store.UnreadCount())
}

func TestAddPrependsNewest(t *testing.T) {
	store, _ := setupNotificationStore(t)

	older := models.Notification{ID: uuid.New(), Title: "antiga", Type: models.NotificationInfo}
	newer := models.Notification{ID: uuid.New(), Title: "recente", Type: models.NotificationInfo}
	store.Add(older)
	store.Add(newer)

	items := store.Items()
	require.Len(t, items, 2)
	assert.Equal(t, newer.ID, items[0].ID)
}
