package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/financeai/backoffice/shared/models"
)

// FallbackName is shown when neither the profile nor the session metadata
// carries a display name.
const FallbackName = "Usuário"

// User is the normalized user record handed to the UI layer, merged from
// the identity backend account and the application profile row.
type User struct {
	ID        uuid.UUID       `json:"id"`
	Email     string          `json:"email"`
	Name      string          `json:"name"`
	AvatarURL string          `json:"avatar_url,omitempty"`
	Role      models.UserRole `json:"role"`
	TenantID  uuid.UUID       `json:"tenant_id"`
}

// Session groups the tokens issued by the identity backend.
type Session struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Response is the result of a sign-in or sign-up. Either field may be nil:
// sign-up returns no session until the account is confirmed.
type Response struct {
	User    *User    `json:"user"`
	Session *Session `json:"session"`
}

// Provider abstracts the identity backend so it can be swapped without
// touching callers. There is a single concrete implementation today; the
// interface is the extension point.
type Provider interface {
	// SignIn authenticates and, when the fetched profile carries a tenant
	// id, switches the tenant resolver to it.
	SignIn(ctx context.Context, email, password string) (*Response, error)
	// SignUp creates the account. The profile row is materialized
	// asynchronously by a backend trigger; implementations poll for it
	// within a small budget and synthesize defaults when it never shows.
	SignUp(ctx context.Context, email, password string, data map[string]interface{}) (*Response, error)
	// SignOut revokes the remote session.
	SignOut(ctx context.Context, accessToken string) error
	// ResetPassword starts the password recovery flow.
	ResetPassword(ctx context.Context, email string) error
	// UpdatePassword replaces the password of the signed-in account.
	UpdatePassword(ctx context.Context, accessToken, previousPassword, newPassword string) error
	// GetUser returns the normalized user for the session, or nil when
	// there is none.
	GetUser(ctx context.Context, accessToken string) (*User, error)
}
