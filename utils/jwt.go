package utils

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const tokenIssuer = "RestaurantBackoffice"

type CustomClaims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RevocationStore shares logged-out token IDs between server instances.
type RevocationStore interface {
	Revoke(ctx context.Context, id string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}

type TokenOption func(*TokenIssuer)

// WithRevocationStore makes revocations visible to every instance using the same
// store. The in-process list is still written and answers when the store fails.
func WithRevocationStore(store RevocationStore) TokenOption {
	return func(ti *TokenIssuer) { ti.shared = store }
}

// TokenIssuer signs and validates HS256 access tokens.
type TokenIssuer struct {
	secret  []byte
	ttl     time.Duration
	revoked *revocationList
	shared  RevocationStore
}

func NewTokenIssuer(secret string, ttl time.Duration, opts ...TokenOption) *TokenIssuer {
	ti := &TokenIssuer{secret: []byte(secret), ttl: ttl, revoked: newRevocationList()}
	for _, opt := range opts {
		opt(ti)
	}
	return ti
}

func (ti *TokenIssuer) GenerateToken(userID uint, role string) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

func (ti *TokenIssuer) ParseToken(ctx context.Context, tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || claims.UserID == 0 {
		return nil, errors.New("invalid token claims")
	}
	if claims.ID != "" && ti.isRevoked(ctx, claims.ID) {
		return nil, errors.New("token has been revoked")
	}
	return claims, nil
}

func (ti *TokenIssuer) isRevoked(ctx context.Context, id string) bool {
	if ti.revoked.contains(id) {
		return true
	}
	if ti.shared == nil {
		return false
	}
	revoked, err := ti.shared.IsRevoked(ctx, id)
	if err != nil {
		ErrorLogger.WithError(err).WithField("jti", id).Warn("revocation store unavailable, using local list")
		return false
	}
	return revoked
}

// Revoke rejects the token with these claims from now until it expires. The local
// list is updated even when the shared store returns an error.
func (ti *TokenIssuer) Revoke(ctx context.Context, claims *CustomClaims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	expiresAt := time.Now().Add(ti.ttl)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	ti.revoked.add(claims.ID, expiresAt)
	if ti.shared == nil {
		return nil
	}
	return errors.Wrap(ti.shared.Revoke(ctx, claims.ID, expiresAt), "store revocation")
}
