package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/financeai/backoffice/shared/models"
	"github.com/financeai/backoffice/shared/utils"
	"github.com/financeai/backoffice/tenant"
)

// identityClient is the slice of the Cognito API the provider uses.
type identityClient interface {
	InitiateAuth(input *cognitoidentityprovider.InitiateAuthInput) (*cognitoidentityprovider.InitiateAuthOutput, error)
	SignUp(input *cognitoidentityprovider.SignUpInput) (*cognitoidentityprovider.SignUpOutput, error)
	GlobalSignOut(input *cognitoidentityprovider.GlobalSignOutInput) (*cognitoidentityprovider.GlobalSignOutOutput, error)
	ForgotPassword(input *cognitoidentityprovider.ForgotPasswordInput) (*cognitoidentityprovider.ForgotPasswordOutput, error)
	ChangePassword(input *cognitoidentityprovider.ChangePasswordInput) (*cognitoidentityprovider.ChangePasswordOutput, error)
	GetUser(input *cognitoidentityprovider.GetUserInput) (*cognitoidentityprovider.GetUserOutput, error)
}

// CognitoProvider implements Provider against AWS Cognito, with the
// application profile row fetched from the backend database.
type CognitoProvider struct {
	client       identityClient
	db           *gorm.DB
	resolver     *tenant.Resolver
	clientID     string
	clientSecret string
	breaker      *utils.CircuitBreaker

	// Profile materialization is asynchronous server-side; the poll below
	// bounds how long sign-up waits for the trigger before synthesizing
	// defaults. The window is a known race: a profile arriving later is
	// not reconciled into an already-returned user.
	profileAttempts int
	profileBackoff  time.Duration
}

// NewCognitoProvider builds the provider for the given AWS region and app
// client credentials.
func NewCognitoProvider(region, clientID, clientSecret string, db *gorm.DB, resolver *tenant.Resolver) (*CognitoProvider, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &CognitoProvider{
		client:          cognitoidentityprovider.New(sess),
		db:              db,
		resolver:        resolver,
		clientID:        clientID,
		clientSecret:    clientSecret,
		breaker:         utils.NewCircuitBreaker(5, 30*time.Second),
		profileAttempts: 5,
		profileBackoff:  200 * time.Millisecond,
	}, nil
}

// secretHash creates the HMAC Cognito expects when the app client has a
// secret configured.
func (p *CognitoProvider) secretHash(username string) string {
	if p.clientSecret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(p.clientSecret))
	mac.Write([]byte(username + p.clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SignIn authenticates against Cognito and loads the user's profile. When
// the profile carries a tenant id, the resolver is switched to it.
func (p *CognitoProvider) SignIn(ctx context.Context, email, password string) (*Response, error) {
	authParams := map[string]*string{
		"USERNAME": aws.String(email),
		"PASSWORD": aws.String(password),
	}
	if hash := p.secretHash(email); hash != "" {
		authParams["SECRET_HASH"] = aws.String(hash)
	}

	var authResult *cognitoidentityprovider.InitiateAuthOutput
	err := p.breaker.Call(func() error {
		var cognitoErr error
		authResult, cognitoErr = p.client.InitiateAuth(&cognitoidentityprovider.InitiateAuthInput{
			AuthFlow:       aws.String("USER_PASSWORD_AUTH"),
			ClientId:       aws.String(p.clientID),
			AuthParameters: authParams,
		})
		return cognitoErr
	})
	if err != nil {
		logrus.WithError(err).Error("erro ao fazer login")
		return nil, err
	}
	if authResult.AuthenticationResult == nil {
		return nil, errors.New("autenticação incompleta")
	}

	sess := &Session{
		AccessToken:  aws.StringValue(authResult.AuthenticationResult.AccessToken),
		IDToken:      aws.StringValue(authResult.AuthenticationResult.IdToken),
		RefreshToken: aws.StringValue(authResult.AuthenticationResult.RefreshToken),
		ExpiresIn:    aws.Int64Value(authResult.AuthenticationResult.ExpiresIn),
	}

	account, err := p.fetchAccount(sess.AccessToken)
	if err != nil {
		logrus.WithError(err).Error("erro ao buscar conta no provedor de identidade")
		return nil, err
	}

	profile := p.fetchProfile(ctx, account.id)
	if profile != nil && profile.TenantID != uuid.Nil {
		p.resolver.SetCurrentTenant(ctx, profile.TenantID.String())
	}

	return &Response{User: p.mapUser(account, profile), Session: sess}, nil
}

// SignUp creates the account and polls for the trigger-created profile,
// synthesizing defaults once the budget is exhausted.
func (p *CognitoProvider) SignUp(ctx context.Context, email, password string, data map[string]interface{}) (*Response, error) {
	name, _ := data["name"].(string)

	attrs := []*cognitoidentityprovider.AttributeType{
		{Name: aws.String("email"), Value: aws.String(email)},
		{Name: aws.String("custom:role"), Value: aws.String(string(models.RoleUser))},
	}
	if name != "" {
		attrs = append(attrs, &cognitoidentityprovider.AttributeType{
			Name: aws.String("name"), Value: aws.String(name),
		})
	}

	signUpInput := &cognitoidentityprovider.SignUpInput{
		ClientId:       aws.String(p.clientID),
		Username:       aws.String(email),
		Password:       aws.String(password),
		UserAttributes: attrs,
	}
	if hash := p.secretHash(email); hash != "" {
		signUpInput.SecretHash = aws.String(hash)
	}

	var signUpResult *cognitoidentityprovider.SignUpOutput
	err := p.breaker.Call(func() error {
		var cognitoErr error
		signUpResult, cognitoErr = p.client.SignUp(signUpInput)
		return cognitoErr
	})
	if err != nil {
		logrus.WithError(err).Error("erro ao criar conta")
		return nil, err
	}

	userID, err := uuid.Parse(aws.StringValue(signUpResult.UserSub))
	if err != nil {
		return nil, fmt.Errorf("identity backend returned an invalid user id: %w", err)
	}

	account := identityAccount{id: userID, email: email, name: name}

	if profile := p.waitForProfile(ctx, userID); profile != nil {
		return &Response{User: p.mapUser(account, profile)}, nil
	}

	// Profile never materialized within the budget: return a synthesized
	// user rather than failing the call.
	return &Response{User: p.mapUser(account, nil)}, nil
}

// SignOut revokes every token issued for the session.
func (p *CognitoProvider) SignOut(ctx context.Context, accessToken string) error {
	err := p.breaker.Call(func() error {
		_, signOutErr := p.client.GlobalSignOut(&cognitoidentityprovider.GlobalSignOutInput{
			AccessToken: aws.String(accessToken),
		})
		return signOutErr
	})
	if err != nil {
		return err
	}
	p.resolver.Reset()
	return nil
}

// ResetPassword starts the recovery flow; errors propagate untouched.
func (p *CognitoProvider) ResetPassword(ctx context.Context, email string) error {
	input := &cognitoidentityprovider.ForgotPasswordInput{
		ClientId: aws.String(p.clientID),
		Username: aws.String(email),
	}
	if hash := p.secretHash(email); hash != "" {
		input.SecretHash = aws.String(hash)
	}
	return p.breaker.Call(func() error {
		_, err := p.client.ForgotPassword(input)
		return err
	})
}

// UpdatePassword replaces the signed-in account's password.
func (p *CognitoProvider) UpdatePassword(ctx context.Context, accessToken, previousPassword, newPassword string) error {
	return p.breaker.Call(func() error {
		_, err := p.client.ChangePassword(&cognitoidentityprovider.ChangePasswordInput{
			AccessToken:      aws.String(accessToken),
			PreviousPassword: aws.String(previousPassword),
			ProposedPassword: aws.String(newPassword),
		})
		return err
	})
}

// GetUser returns nil when there is no valid session. A failing profile
// lookup falls back to synthesized defaults, mirroring the sign-up policy.
func (p *CognitoProvider) GetUser(ctx context.Context, accessToken string) (*User, error) {
	account, err := p.fetchAccount(accessToken)
	if err != nil {
		logrus.WithError(err).Debug("sessão ausente ou inválida")
		return nil, nil
	}

	profile := p.fetchProfile(ctx, account.id)
	return p.mapUser(account, profile), nil
}

// identityAccount is the raw account data from the identity backend.
type identityAccount struct {
	id    uuid.UUID
	email string
	name  string // from session metadata, may be empty
}

// fetchAccount resolves the session's account via the identity backend.
func (p *CognitoProvider) fetchAccount(accessToken string) (identityAccount, error) {
	var out *cognitoidentityprovider.GetUserOutput
	err := p.breaker.Call(func() error {
		var getErr error
		out, getErr = p.client.GetUser(&cognitoidentityprovider.GetUserInput{
			AccessToken: aws.String(accessToken),
		})
		return getErr
	})
	if err != nil {
		return identityAccount{}, err
	}

	sub := attributeValue(out.UserAttributes, "sub")
	id, err := uuid.Parse(sub)
	if err != nil {
		return identityAccount{}, fmt.Errorf("identity backend returned an invalid sub %q", sub)
	}

	return identityAccount{
		id:    id,
		email: attributeValue(out.UserAttributes, "email"),
		name:  attributeValue(out.UserAttributes, "name"),
	}, nil
}

// fetchProfile loads the application profile row, nil when absent or the
// read fails (callers fall back to synthesized defaults).
func (p *CognitoProvider) fetchProfile(ctx context.Context, id uuid.UUID) *models.Profile {
	var profile models.Profile
	err := p.db.WithContext(ctx).Preload("Contacts").Where("id = ?", id).First(&profile).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logrus.WithError(err).WithField("user_id", id).Error("erro ao buscar perfil")
		}
		return nil
	}
	return &profile
}

// waitForProfile polls for the trigger-created profile with backoff.
func (p *CognitoProvider) waitForProfile(ctx context.Context, id uuid.UUID) *models.Profile {
	for attempt := 1; attempt <= p.profileAttempts; attempt++ {
		if profile := p.fetchProfile(ctx, id); profile != nil {
			return profile
		}
		select {
		case <-time.After(time.Duration(attempt) * p.profileBackoff):
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

// mapUser normalizes account + profile into the record the UI consumes:
// name prefers profile, then session metadata, then the unknown-user
// placeholder; role defaults to user; tenant id defaults to the fallback
// tenant.
func (p *CognitoProvider) mapUser(account identityAccount, profile *models.Profile) *User {
	user := &User{
		ID:       account.id,
		Email:    account.email,
		Name:     account.name,
		Role:     models.RoleUser,
		TenantID: uuid.MustParse(tenant.DefaultTenantID),
	}

	if profile != nil {
		if profile.Name != "" {
			user.Name = profile.Name
		}
		user.AvatarURL = profile.AvatarURL
		if profile.Role != "" {
			user.Role = profile.Role
		}
		if profile.TenantID != uuid.Nil {
			user.TenantID = profile.TenantID
		}
	}

	if user.Name == "" {
		user.Name = FallbackName
	}
	return user
}

// attributeValue extracts a named attribute from a Cognito attribute list.
func attributeValue(attrs []*cognitoidentityprovider.AttributeType, name string) string {
	for _, attr := range attrs {
		if aws.StringValue(attr.Name) == name {
			return aws.StringValue(attr.Value)
		}
	}
	return ""
}
