package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/financeai/backoffice/auth"
	"github.com/financeai/backoffice/gateway"
	"github.com/financeai/backoffice/services/notifications"
	"github.com/financeai/backoffice/services/users"
	"github.com/financeai/backoffice/shared/models"
	"github.com/financeai/backoffice/tenant"
)

type fakeProvider struct {
	auth.Provider

	signUpErr error
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password string, data map[string]interface{}) (*auth.Response, error) {
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	name, _ := data["name"].(string)
	return &auth.Response{User: &auth.User{
		ID:       uuid.New(),
		Email:    email,
		Name:     name,
		Role:     models.RoleUser,
		TenantID: uuid.MustParse(tenant.DefaultTenantID),
	}}, nil
}

func setupUserStore(t *testing.T, tenantID uuid.UUID) (*UserStore, *fakeProvider, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Profile{}, &models.Contact{}, &models.Notification{}))

	gw := gateway.New(db, gateway.NewLocalFeed(), nil)
	resolver := tenant.NewResolver(noLookup{}, &fixedStore{id: tenantID.String()}, nil)
	provider := &fakeProvider{}
	svc := users.NewService(gw, provider, resolver, notifications.NewService(gw))
	return NewUserStore(svc), provider, db
}

func TestUserFetchReady(t *testing.T) {
	tenantID := uuid.New()
	store, _, db := setupUserStore(t, tenantID)

	require.NoError(t, db.Create(&models.Profile{
		ID: uuid.New(), Email: "ana@financeai.com.br", Name: "Ana",
		TenantID: tenantID, Role: models.RoleUser,
	}).Error)

	store.Fetch(context.Background())

	state, stateErr := store.State()
	assert.Equal(t, Ready, state)
	assert.NoError(t, stateErr)
	assert.Len(t, store.Items(), 1)
}

func TestUserCreatePrepends(t *testing.T) {
	tenantID := uuid.MustParse(tenant.DefaultTenantID)
	store, _, db := setupUserStore(t, tenantID)

	require.NoError(t, db.Create(&models.Profile{
		ID: uuid.New(), Email: "antiga@financeai.com.br", TenantID: tenantID, Role: models.RoleUser,
	}).Error)
	store.Fetch(context.Background())

	created := store.Create(context.Background(), users.CreateUserInput{
		Email: "nova@financeai.com.br", Password: "senha-secreta", Name: "Nova",
	})
	require.NotNil(t, created)

	items := store.Items()
	require.Len(t, items, 2)
	assert.Equal(t, created.ID, items[0].ID)
	assert.Equal(t, "Nova", items[0].Name)
}

func TestUserCreateFailureLandsInFailedState(t *testing.T) {
	store, provider, _ := setupUserStore(t, uuid.New())
	provider.signUpErr = errors.New("limite de contas atingido")

	created := store.Create(context.Background(), users.CreateUserInput{
		Email: "falha@financeai.com.br", Password: "senha", Name: "Falha",
	})
	assert.Nil(t, created)

	state, stateErr := store.State()
	assert.Equal(t, Failed, state)
	assert.Error(t, stateErr)
	assert.Empty(t, store.Items())
}

func TestUserUpdateFailureLandsInFailedState(t *testing.T) {
	store, _, _ := setupUserStore(t, uuid.New())

	name := "Renomeada"
	updated := store.Update(context.Background(), uuid.New(), users.UpdateUserInput{Name: &name})
	assert.Nil(t, updated)

	state, stateErr := store.State()
	assert.Equal(t, Failed, state)
	assert.Error(t, stateErr)
}
