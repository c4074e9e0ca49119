package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/financeai/backoffice/gateway"
	"github.com/financeai/backoffice/shared/models"
)

func setupService(t *testing.T) (*Service, *gateway.LocalFeed) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Notification{}))

	feed := gateway.NewLocalFeed()
	return NewService(gateway.New(db, feed, nil)), feed
}

func TestCreatePublishesOnUserScope(t *testing.T) {
	svc, feed := setupService(t)
	userID := uuid.New()

	received := make(chan gateway.Event, 1)
	feed.Subscribe(gateway.Scope{Table: "notifications", Column: "user_id", Value: userID.String()}, func(e gateway.Event) {
		received <- e
	})

	created, err := svc.Create(context.Background(), CreateNotificationInput{
		UserID:  userID,
		Title:   "Bem-vindo ao Finance AI",
		Message: "Sua conta foi criada com sucesso.",
		Type:    models.NotificationSuccess,
	})
	require.NoError(t, err)
	assert.False(t, created.Read)

	select {
	case event := <-received:
		assert.Equal(t, gateway.EventInsert, event.Type)
	case <-time.After(time.Second):
		t.Fatal("nenhum evento publicado para o escopo do usuário")
	}
}

func TestFindAllScopedAndOrdered(t *testing.T) {
	svc, _ := setupService(t)
	mine := uuid.New()
	other := uuid.New()

	first, err := svc.Create(context.Background(), CreateNotificationInput{UserID: mine, Title: "primeira", Type: models.NotificationInfo})
	require.NoError(t, err)
	svc.gw.DB().Model(first).Update("created_at", time.Now().Add(-time.Hour))

	_, err = svc.Create(context.Background(), CreateNotificationInput{UserID: other, Title: "alheia", Type: models.NotificationInfo})
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), CreateNotificationInput{UserID: mine, Title: "segunda", Type: models.NotificationWarning})
	require.NoError(t, err)

	got := svc.FindAll(context.Background(), mine)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
}

func TestMarkAsRead(t *testing.T) {
	svc, _ := setupService(t)
	userID := uuid.New()

	created, err := svc.Create(context.Background(), CreateNotificationInput{UserID: userID, Title: "leia-me", Type: models.NotificationInfo})
	require.NoError(t, err)

	require.NoError(t, svc.MarkAsRead(context.Background(), created.ID))

	var stored models.Notification
	require.NoError(t, svc.gw.DB().First(&stored, "id = ?", created.ID).Error)
	assert.True(t, stored.Read)
}

func TestDelete(t *testing.T) {
	svc, _ := setupService(t)
	userID := uuid.New()

	created, err := svc.Create(context.Background(), CreateNotificationInput{UserID: userID, Title: "efêmera", Type: models.NotificationInfo})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.Empty(t, svc.FindAll(context.Background(), userID))
}

func TestSubscribeReplacesPrevious(t *testing.T) {
	svc, feed := setupService(t)
	userID := uuid.New()
	sc := scope(userID)

	var firstHits, secondHits int
	svc.Subscribe(userID, func(models.Notification) { firstHits++ })
	assert.Equal(t, 1, feed.SubscriberCount(sc))

	svc.Subscribe(userID, func(models.Notification) { secondHits++ })
	assert.Equal(t, 1, feed.SubscriberCount(sc))

	_, err := svc.Create(context.Background(), CreateNotificationInput{UserID: userID, Title: "nova", Type: models.NotificationInfo})
	require.NoError(t, err)

	assert.Equal(t, 0, firstHits)
	assert.Equal(t, 1, secondHits)
}

func TestUnsubscribeIdempotent(t *testing.T) {
	svc, feed := setupService(t)
	userID := uuid.New()
	sc := scope(userID)

	unsub := svc.Subscribe(userID, func(models.Notification) {})
	require.Equal(t, 1, feed.SubscriberCount(sc))

	unsub()
	unsub()
	assert.Equal(t, 0, feed.SubscriberCount(sc))
}
