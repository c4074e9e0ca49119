package utils

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// jwksRefreshTTL bounds how often the key set is re-fetched; Cognito
// rotates signing keys rarely.
const jwksRefreshTTL = 24 * time.Hour

// jwk is a single RSA key as published on the JWKS endpoint.
type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

// JWKSValidator verifies access-token signatures against the user pool's
// published key set. Keys are cached; an unknown kid triggers one refresh
// before the token is rejected.
type JWKSValidator struct {
	endpoint string
	client   *http.Client

	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	lastRefresh time.Time
}

// NewJWKSValidator builds a validator for the pool's JWKS endpoint and
// primes the key cache. A failed initial fetch is tolerated: the first
// token validation retries it.
func NewJWKSValidator(region, userPoolID string) *JWKSValidator {
	v := &JWKSValidator{
		endpoint: fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s/.well-known/jwks.json", region, userPoolID),
		client:   &http.Client{Timeout: 10 * time.Second},
		keys:     make(map[string]*rsa.PublicKey),
	}
	_ = v.refresh(false)
	return v
}

// refresh re-fetches the key set. When force is false a fetch inside the
// TTL window is skipped.
func (v *JWKSValidator) refresh(force bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !force && time.Since(v.lastRefresh) < jwksRefreshTTL {
		return nil
	}

	resp, err := v.client.Get(v.endpoint)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var set jwkSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := k.publicKey()
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	v.keys = keys
	v.lastRefresh = time.Now()
	return nil
}

// publicKey decodes the JWK's modulus and exponent into an rsa.PublicKey.
func (k jwk) publicKey() (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(new(big.Int).SetBytes(e).Int64()),
	}, nil
}

// key returns the cached public key for kid, refreshing the set once when
// the kid is unknown (key rotation).
func (v *JWKSValidator) key(kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	pub, ok := v.keys[kid]
	v.mu.RUnlock()
	if ok {
		return pub, nil
	}

	if err := v.refresh(true); err != nil {
		return nil, err
	}

	v.mu.RLock()
	pub, ok = v.keys[kid]
	v.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("signing key %s not found", kid)
	}
	return pub, nil
}

// ValidateToken verifies the token's RSA signature against the key set and
// returns the parsed token.
func (v *JWKSValidator) ValidateToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("kid not found in token header")
		}
		return v.key(kid)
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("token is invalid")
	}
	return token, nil
}
