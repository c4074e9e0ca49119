package licenses

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/financeai/backoffice/gateway"
	"github.com/financeai/backoffice/shared/models"
	"github.com/financeai/backoffice/tenant"
)

type fixedStore struct{ id string }

func (s *fixedStore) Load() string { return s.id }
func (s *fixedStore) Save(string)  {}

func setupService(t *testing.T) (*Service, uuid.UUID) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Tenant{}, &models.License{}))

	gw := gateway.New(db, gateway.NewLocalFeed(), nil)
	tenantID := uuid.New()
	resolver := tenant.NewResolver(tenant.GatewayLookup{Gateway: gw}, &fixedStore{id: tenantID.String()}, nil)

	return NewService(gw, resolver), tenantID
}

func TestCreate_AttachesResolvedTenant(t *testing.T) {
	svc, tenantID := setupService(t)
	ownerID := uuid.New()

	license, err := svc.Create(context.Background(), ownerID, CreateLicenseInput{
		Name:         "Plano Pro",
		Domain:       "empresa.com.br",
		CompanyName:  "Empresa LTDA",
		Modules:      []string{"finance", "chat"},
		PrimaryColor: "#112233",
	})
	require.NoError(t, err)

	assert.Equal(t, tenantID, license.TenantID, "writes must carry the resolved tenant id")
	assert.Equal(t, ownerID, license.OwnerID)
	assert.Equal(t, models.StatusActive, license.Status)
	assert.True(t, license.Modules.Contains("chat"))
}

func TestCreate_RejectsInvalidDomainBeforeRemoteCall(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Create(context.Background(), uuid.New(), CreateLicenseInput{
		Name:   "Plano",
		Domain: "not a domain",
	})
	assert.ErrorIs(t, err, ErrInvalidDomain)

	var count int64
	svc.gw.DB().Model(&models.License{}).Count(&count)
	assert.Zero(t, count, "validation errors must never reach the backend")
}

func TestFindAll_ScopedAndNewestFirst(t *testing.T) {
	svc, tenantID := setupService(t)
	ownerID := uuid.New()

	first, err := svc.Create(context.Background(), ownerID, CreateLicenseInput{Name: "A", Domain: "a.example.com"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), uuid.New(), CreateLicenseInput{Name: "B", Domain: "b.example.com"})
	require.NoError(t, err)

	licenses := svc.FindAll(context.Background(), ownerID)
	require.Len(t, licenses, 1, "other owners' licenses must not appear")
	assert.Equal(t, first.ID, licenses[0].ID)
	assert.Equal(t, tenantID, licenses[0].TenantID)
}

func TestFindOne_NotFound(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.FindOne(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrLicenseNotFound)
}

func TestUpdate_SetsStatusVerbatim(t *testing.T) {
	svc, _ := setupService(t)

	license, err := svc.Create(context.Background(), uuid.New(), CreateLicenseInput{Name: "A", Domain: "a.example.com"})
	require.NoError(t, err)

	suspended := models.StatusSuspended
	updated, err := svc.Update(context.Background(), license.ID, UpdateLicenseInput{Status: &suspended})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuspended, updated.Status)
}

func TestDelete(t *testing.T) {
	svc, _ := setupService(t)

	license, err := svc.Create(context.Background(), uuid.New(), CreateLicenseInput{Name: "A", Domain: "a.example.com"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), license.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), license.ID), ErrLicenseNotFound)
}
