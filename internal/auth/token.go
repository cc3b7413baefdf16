package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/support-tickets/internal/config"
	"github.com/spec-kit/support-tickets/internal/domain"
)

// roleClaim is the shape of realm_access and each resource_access entry.
type roleClaim struct {
	Roles []string `json:"roles,omitempty"`
}

// Claims describes the JWT payload issued by the identity provider.
type Claims struct {
	Email          string               `json:"email,omitempty"`
	CustomerID     string               `json:"customer_id,omitempty"`
	RealmAccess    roleClaim            `json:"realm_access"`
	ResourceAccess map[string]roleClaim `json:"resource_access,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager validates bearer tokens and, for local development, issues them.
type TokenManager struct {
	secret    []byte
	publicKey *rsa.PublicKey
	issuer    string
	audience  string
	ttl       time.Duration
}

// NewTokenManager builds a manager from auth configuration. An RS256 public key
// takes precedence over the shared HS256 secret.
func NewTokenManager(cfg config.AuthConfig) (*TokenManager, error) {
	tm := &TokenManager{
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.DevTokenTTL,
	}
	if tm.ttl <= 0 {
		tm.ttl = time.Hour
	}
	if strings.TrimSpace(cfg.PublicKeyPEM) != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse AUTH_PUBLIC_KEY_PEM: %w", err)
		}
		tm.publicKey = key
		return tm, nil
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("either AUTH_PUBLIC_KEY_PEM or AUTH_JWT_SECRET is required")
	}
	tm.secret = []byte(cfg.JWTSecret)
	return tm, nil
}

// Verify validates the token and returns the actor it describes.
func (tm *TokenManager) Verify(tokenStr string) (domain.Actor, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if tm.publicKey != nil {
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	} else {
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	}
	if tm.issuer != "" {
		opts = append(opts, jwt.WithIssuer(tm.issuer))
	}
	if tm.audience != "" {
		opts = append(opts, jwt.WithAudience(tm.audience))
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if tm.publicKey != nil {
			return tm.publicKey, nil
		}
		return tm.secret, nil
	}, opts...)
	if err != nil {
		return domain.Actor{}, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Actor{}, errors.New("invalid token claims")
	}
	if claims.Subject == "" {
		return domain.Actor{}, errors.New("token subject (sub) is missing")
	}
	return claims.actor(), nil
}

// GenerateToken signs an HS256 token for the actor. Only available with a shared secret.
func (tm *TokenManager) GenerateToken(actor domain.Actor) (string, time.Time, error) {
	if tm.secret == nil {
		return "", time.Time{}, errors.New("token issuing requires AUTH_JWT_SECRET")
	}
	now := time.Now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		RealmAccess: roleClaim{Roles: actor.RoleNames()},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.SubjectID,
			Issuer:    tm.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if tm.audience != "" {
		claims.Audience = jwt.ClaimStrings{tm.audience}
	}
	if actor.TenantID != nil {
		claims.CustomerID = *actor.TenantID
	}
	if actor.Email != nil {
		claims.Email = *actor.Email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// actor merges realm and resource roles into a deduplicated, sorted set.
func (c *Claims) actor() domain.Actor {
	seen := map[string]struct{}{}
	for _, role := range c.RealmAccess.Roles {
		seen[role] = struct{}{}
	}
	for _, entry := range c.ResourceAccess {
		for _, role := range entry.Roles {
			seen[role] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for role := range seen {
		names = append(names, role)
	}
	sort.Strings(names)

	actor := domain.Actor{SubjectID: c.Subject, Roles: make([]domain.Role, 0, len(names))}
	for _, name := range names {
		actor.Roles = append(actor.Roles, domain.Role(name))
	}
	if c.CustomerID != "" {
		tenantID := c.CustomerID
		actor.TenantID = &tenantID
	}
	if c.Email != "" {
		email := c.Email
		actor.Email = &email
	}
	return actor
}
