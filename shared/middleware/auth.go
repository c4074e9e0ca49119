package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/financeai/backoffice/shared/models"
	"github.com/financeai/backoffice/shared/utils"
)

// AuthMiddleware handles JWT token validation
type AuthMiddleware struct {
	db            *gorm.DB
	jwksValidator *utils.JWKSValidator
}

// AccessClaims are the claims carried by the identity backend's access token.
type AccessClaims struct {
	Sub            string `json:"sub"`
	Email          string `json:"email"`
	Username       string `json:"cognito:username"`
	TokenUse       string `json:"token_use"`
	CustomTenantID string `json:"custom:tenant_id"`
	CustomRole     string `json:"custom:role"`
	jwt.RegisteredClaims
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(region, userPoolID string, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		db:            db,
		jwksValidator: utils.NewJWKSValidator(region, userPoolID),
	}
}

// RequireAuth middleware validates JWT tokens
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			c.Abort()
			return
		}

		claims, err := am.parseToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.Sub)
		c.Set("email", claims.Email)
		c.Set("tenant_id", claims.CustomTenantID)
		c.Set("role", claims.CustomRole)

		// Activate the backend's row-level security policies for this
		// connection; tenant isolation is enforced remotely, not here.
		if tenantUUID, err := uuid.Parse(claims.CustomTenantID); err == nil {
			am.db.Exec("SELECT set_tenant_context(?)", tenantUUID)
			am.db.Exec("SELECT set_user_role(?)", claims.CustomRole)
		}

		c.Next()
	}
}

// RequireRole middleware validates user role
func (am *AuthMiddleware) RequireRole(requiredRole models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User role not found in context"})
			c.Abort()
			return
		}

		if role != string(requiredRole) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":         "Insufficient permissions",
				"required_role": requiredRole,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// parseToken verifies the token signature against the identity backend's
// JWKS and returns the decoded claims.
func (am *AuthMiddleware) parseToken(tokenString string) (*AccessClaims, error) {
	if _, err := am.jwksValidator.ValidateToken(tokenString); err != nil {
		return nil, err
	}

	claims := &AccessClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// extractToken extracts the bearer token from the Authorization header.
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if bearerToken == "" {
		return ""
	}
	parts := strings.SplitN(bearerToken, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return bearerToken
}

// UserID returns the authenticated user id set by RequireAuth.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw.(string))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
