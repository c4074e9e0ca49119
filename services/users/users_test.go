package users

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
	"github.com/financeai/backoffice/shared/models"
	"github.com/financeai/backoffice/tenant"
)

type fakeProvider struct {
	auth.Provider

	signUpErr error
	created   *auth.User
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password string, data map[string]interface{}) (*auth.Response, error) {
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	role := models.RoleUser
	if r, ok := data["role"].(string); ok && r != "" {
		role = models.UserRole(r)
	}
	name, _ := data["name"].(string)
	f.created = &auth.User{
		ID:       uuid.New(),
		Email:    email,
		Name:     name,
		Role:     role,
		TenantID: uuid.MustParse(tenant.DefaultTenantID),
	}
	return &auth.Response{User: f.created}, nil
}

type fixedStore struct{ id string }

func (f *fixedStore) Load() string   { return f.id }
func (f *fixedStore) Save(id string) { f.id = id }

type noLookup struct{}

func (noLookup) FindTenant(context.Context, string) (*models.Tenant, error) {
	return nil, errors.New("sem banco")
}

func setupService(t *testing.T, tenantID string) (*Service, *fakeProvider, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Profile{}, &models.Contact{}, &models.Notification{}))

	gw := gateway.New(db, gateway.NewLocalFeed(), nil)
	resolver := tenant.NewResolver(noLookup{}, &fixedStore{id: tenantID}, nil)
	provider := &fakeProvider{}
	svc := NewService(gw, provider, resolver, notifications.NewService(gw))
	return svc, provider, db
}

func TestFindAllFiltersHiddenContacts(t *testing.T) {
	tenantID := uuid.New()
	svc, _, db := setupService(t, tenantID.String())

	profile := models.Profile{ID: uuid.New(), Email: "ana@financeai.com.br", Name: "Ana", TenantID: tenantID, Role: models.RoleUser}
	require.NoError(t, db.Create(&profile).Error)

	require.NoError(t, db.Create(&models.Contact{
		ID: uuid.New(), TenantID: tenantID, OwnerID: profile.ID,
		Type: models.ContactWhatsApp, Identifier: "+5511999990000", DisplayOrder: 2,
	}).Error)
	require.NoError(t, db.Create(&models.Contact{
		ID: uuid.New(), TenantID: tenantID, OwnerID: profile.ID,
		Type: models.ContactEmail, Identifier: "oculto@financeai.com.br",
		Metadata: models.JSONMap{"hidden": true},
	}).Error)
	require.NoError(t, db.Create(&models.Contact{
		ID: uuid.New(), TenantID: tenantID, OwnerID: profile.ID,
		Type: models.ContactPhone, Identifier: "+551133330000", DisplayOrder: 1,
	}).Error)

	profiles, err := svc.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 1)

	contacts := profiles[0].Contacts
	require.Len(t, contacts, 2)
	assert.Equal(t, models.ContactPhone, contacts[0].Type)
	assert.Equal(t, models.ContactWhatsApp, contacts[1].Type)
}

func TestFindAllScopedToTenant(t *testing.T) {
	tenantID := uuid.New()
	svc, _, db := setupService(t, tenantID.String())

	require.NoError(t, db.Create(&models.Profile{
		ID: uuid.New(), Email: "fora@financeai.com.br", TenantID: uuid.New(), Role: models.RoleUser,
	}).Error)

	profiles, err := svc.FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestCreateSeedsContactsAndWelcomeNotification(t *testing.T) {
	svc, provider, db := setupService(t, tenant.DefaultTenantID)

	user, err := svc.Create(context.Background(), CreateUserInput{
		Email:    "novo@financeai.com.br",
		Password: "senha-secreta",
		Name:     "Novo Usuário",
		Contacts: []ContactInput{{Type: models.ContactWhatsApp, Identifier: "+5511988887777"}},
	})
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, provider.created.ID, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)

	var contacts []models.Contact
	require.NoError(t, db.Where("owner_id = ?", user.ID).Find(&contacts).Error)
	require.Len(t, contacts, 1)
	assert.Equal(t, "+5511988887777", contacts[0].Identifier)

	var welcome models.Notification
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&welcome).Error)
	assert.Equal(t, "Bem-vindo ao Finance AI", welcome.Title)
	assert.Equal(t, models.NotificationSuccess, welcome.Type)
	assert.False(t, welcome.Read)
}

func TestCreateProviderFailureIsFatal(t *testing.T) {
	svc, provider, db := setupService(t, tenant.DefaultTenantID)
	provider.signUpErr = errors.New("limite de contas atingido")

	user, err := svc.Create(context.Background(), CreateUserInput{
		Email: "falha@financeai.com.br", Password: "senha", Name: "Falha",
	})
	require.Error(t, err)
	assert.Nil(t, user)

	var count int64
	db.Model(&models.Notification{}).Count(&count)
	assert.Zero(t, count)
}

func TestFindOneNotFound(t *testing.T) {
	svc, _, _ := setupService(t, tenant.DefaultTenantID)

	profile, err := svc.FindOne(context.Background(), uuid.New())
	assert.Nil(t, profile)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
