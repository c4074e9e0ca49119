package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/financeai/backoffice/shared/models"
	"github.com/financeai/backoffice/shared/utils"
	"github.com/financeai/backoffice/tenant"
)

type fakeIdentity struct {
	initiateAuthOut *cognitoidentityprovider.InitiateAuthOutput
	initiateAuthErr error
	signUpOut       *cognitoidentityprovider.SignUpOutput
	signUpErr       error
	getUserOut      *cognitoidentityprovider.GetUserOutput
	getUserErr      error
	signOutCalls    int
}

func (f *fakeIdentity) InitiateAuth(_ *cognitoidentityprovider.InitiateAuthInput) (*cognitoidentityprovider.InitiateAuthOutput, error) {
	return f.initiateAuthOut, f.initiateAuthErr
}

func (f *fakeIdentity) SignUp(_ *cognitoidentityprovider.SignUpInput) (*cognitoidentityprovider.SignUpOutput, error) {
	return f.signUpOut, f.signUpErr
}

func (f *fakeIdentity) GlobalSignOut(_ *cognitoidentityprovider.GlobalSignOutInput) (*cognitoidentityprovider.GlobalSignOutOutput, error) {
	f.signOutCalls++
	return &cognitoidentityprovider.GlobalSignOutOutput{}, nil
}

func (f *fakeIdentity) ForgotPassword(_ *cognitoidentityprovider.ForgotPasswordInput) (*cognitoidentityprovider.ForgotPasswordOutput, error) {
	return &cognitoidentityprovider.ForgotPasswordOutput{}, nil
}

func (f *fakeIdentity) ChangePassword(_ *cognitoidentityprovider.ChangePasswordInput) (*cognitoidentityprovider.ChangePasswordOutput, error) {
	return &cognitoidentityprovider.ChangePasswordOutput{}, nil
}

func (f *fakeIdentity) GetUser(_ *cognitoidentityprovider.GetUserInput) (*cognitoidentityprovider.GetUserOutput, error) {
	return f.getUserOut, f.getUserErr
}

type testStore struct{ id string }

func (s *testStore) Load() string   { return s.id }
func (s *testStore) Save(id string) { s.id = id }

type noLookup struct{}

func (noLookup) FindTenant(context.Context, string) (*models.Tenant, error) {
	return nil, errors.New("lookup must not be called")
}

func setupAuthDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Tenant{}, &models.Profile{}, &models.Contact{}))
	return db
}

func newTestProvider(t *testing.T, client *fakeIdentity) (*CognitoProvider, *tenant.Resolver, *gorm.DB) {
	t.Helper()
	db := setupAuthDB(t)
	resolver := tenant.NewResolver(noLookup{}, &testStore{}, nil)
	provider := &CognitoProvider{
		client:          client,
		db:              db,
		resolver:        resolver,
		clientID:        "test-client",
		breaker:         utils.NewCircuitBreaker(5, time.Second),
		profileAttempts: 2,
		profileBackoff:  time.Millisecond,
	}
	return provider, resolver, db
}

func getUserOutput(id uuid.UUID, email, name string) *cognitoidentityprovider.GetUserOutput {
	attrs := []*cognitoidentityprovider.AttributeType{
		{Name: aws.String("sub"), Value: aws.String(id.String())},
		{Name: aws.String("email"), Value: aws.String(email)},
	}
	if name != "" {
		attrs = append(attrs, &cognitoidentityprovider.AttributeType{
			Name: aws.String("name"), Value: aws.String(name),
		})
	}
	return &cognitoidentityprovider.GetUserOutput{
		Username:       aws.String(email),
		UserAttributes: attrs,
	}
}

func tokens() *cognitoidentityprovider.InitiateAuthOutput {
	return &cognitoidentityprovider.InitiateAuthOutput{
		AuthenticationResult: &cognitoidentityprovider.AuthenticationResultType{
			AccessToken:  aws.String("access"),
			IdToken:      aws.String("id"),
			RefreshToken: aws.String("refresh"),
			ExpiresIn:    aws.Int64(3600),
		},
	}
}

func TestSignIn_SwitchesTenantFromProfile(t *testing.T) {
	userID := uuid.New()
	tenantID := uuid.New()
	client := &fakeIdentity{
		initiateAuthOut: tokens(),
		getUserOut:      getUserOutput(userID, "ana@corp.com", ""),
	}
	provider, resolver, db := newTestProvider(t, client)

	require.NoError(t, db.Create(&models.Profile{
		ID:       userID,
		Email:    "ana@corp.com",
		Name:     "Ana Souza",
		Role:     models.RoleAdmin,
		TenantID: tenantID,
	}).Error)

	resp, err := provider.SignIn(context.Background(), "ana@corp.com", "s3cret")
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	require.NotNil(t, resp.Session)

	assert.Equal(t, "Ana Souza", resp.User.Name)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
	assert.Equal(t, tenantID, resp.User.TenantID)
	assert.Equal(t, "access", resp.Session.AccessToken)
	assert.Equal(t, tenantID.String(), resolver.GetTenantID(context.Background()),
		"sign-in must switch the resolver to the profile's tenant")
}

func TestSignIn_RemoteErrorIsReturnedNotPanicked(t *testing.T) {
	client := &fakeIdentity{initiateAuthErr: errors.New("NotAuthorizedException")}
	provider, _, _ := newTestProvider(t, client)

	resp, err := provider.SignIn(context.Background(), "ana@corp.com", "wrong")
	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestSignUp_ProfileNeverMaterializes(t *testing.T) {
	userID := uuid.New()
	client := &fakeIdentity{
		signUpOut: &cognitoidentityprovider.SignUpOutput{UserSub: aws.String(userID.String())},
	}
	provider, _, _ := newTestProvider(t, client)

	resp, err := provider.SignUp(context.Background(), "novo@corp.com", "s3cret", map[string]interface{}{"name": "Novo Usuário"})
	require.NoError(t, err)
	require.NotNil(t, resp.User, "sign-up must not fail when the trigger is late")

	assert.Equal(t, userID, resp.User.ID)
	assert.Equal(t, "Novo Usuário", resp.User.Name)
	assert.Equal(t, models.RoleUser, resp.User.Role)
	assert.Equal(t, tenant.DefaultTenantID, resp.User.TenantID.String())
}

func TestSignUp_ProfileMaterialized(t *testing.T) {
	userID := uuid.New()
	tenantID := uuid.New()
	client := &fakeIdentity{
		signUpOut: &cognitoidentityprovider.SignUpOutput{UserSub: aws.String(userID.String())},
	}
	provider, _, db := newTestProvider(t, client)

	require.NoError(t, db.Create(&models.Profile{
		ID:       userID,
		Email:    "novo@corp.com",
		Name:     "Perfil Real",
		Role:     models.RoleUser,
		TenantID: tenantID,
	}).Error)

	resp, err := provider.SignUp(context.Background(), "novo@corp.com", "s3cret", nil)
	require.NoError(t, err)
	assert.Equal(t, "Perfil Real", resp.User.Name)
	assert.Equal(t, tenantID, resp.User.TenantID)
}

func TestGetUser_NoSession(t *testing.T) {
	client := &fakeIdentity{getUserErr: errors.New("NotAuthorizedException")}
	provider, _, _ := newTestProvider(t, client)

	user, err := provider.GetUser(context.Background(), "expired")
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestGetUser_FallsBackToSessionMetadata(t *testing.T) {
	userID := uuid.New()
	client := &fakeIdentity{getUserOut: getUserOutput(userID, "sem-perfil@corp.com", "Da Sessão")}
	provider, _, _ := newTestProvider(t, client)

	user, err := provider.GetUser(context.Background(), "access")
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, "Da Sessão", user.Name)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, tenant.DefaultTenantID, user.TenantID.String())
}

func TestGetUser_PlaceholderNameWhenNothingKnown(t *testing.T) {
	userID := uuid.New()
	client := &fakeIdentity{getUserOut: getUserOutput(userID, "anon@corp.com", "")}
	provider, _, _ := newTestProvider(t, client)

	user, err := provider.GetUser(context.Background(), "access")
	require.NoError(t, err)
	assert.Equal(t, FallbackName, user.Name)
}

func TestSignOut_ResetsResolver(t *testing.T) {
	client := &fakeIdentity{}
	provider, resolver, _ := newTestProvider(t, client)

	resolver.SetCurrentTenant(context.Background(), uuid.New().String())
	require.NoError(t, provider.SignOut(context.Background(), "access"))
	assert.Equal(t, 1, client.signOutCalls)
}
