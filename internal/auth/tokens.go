package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "tubehub"

var (
	// ErrInvalidToken indicates a token failed signature or claim validation.
	// Expired, forged and malformed tokens all collapse into this error so
	// callers cannot be used as an oracle.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenStale indicates a refresh token that was cryptographically valid
	// but no longer matches the stored session slot: it was already rotated
	// past, or another refresh won the race.
	ErrTokenStale = errors.New("refresh token expired or used")
)

// TokenConfig carries the signing material for the issuer. Access and refresh
// tokens are signed with distinct secrets so either class can be revoked by
// rotating its secret.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Claims is the payload carried by both token classes.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies the two token classes. It reads no external
// state; every token is a deterministic function of the user id, the clock
// and the configured secret.
type TokenIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokenIssuer constructs an issuer from the provided configuration. The
// now function may be nil, in which case the wall clock is used.
func NewTokenIssuer(cfg TokenConfig, now func() time.Time) *TokenIssuer {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		panic("auth: token secrets must not be empty")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{cfg: cfg, now: now}
}

// IssueAccess mints a short-lived access token for the user.
func (i *TokenIssuer) IssueAccess(userID string) (string, time.Time, error) {
	return i.sign(userID, i.cfg.AccessSecret, i.cfg.AccessTTL)
}

// IssueRefresh mints a long-lived refresh token for the user. The embedded
// jti guarantees consecutive tokens for the same user differ even within one
// clock tick.
func (i *TokenIssuer) IssueRefresh(userID string) (string, time.Time, error) {
	return i.sign(userID, i.cfg.RefreshSecret, i.cfg.RefreshTTL)
}

// VerifyAccess validates an access token and returns the user id it asserts.
func (i *TokenIssuer) VerifyAccess(token string) (string, error) {
	return i.verify(token, i.cfg.AccessSecret)
}

// VerifyRefresh validates a refresh token and returns the user id it asserts.
func (i *TokenIssuer) VerifyRefresh(token string) (string, error) {
	return i.verify(token, i.cfg.RefreshSecret)
}

func (i *TokenIssuer) sign(userID string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, errors.New("user id must be provided")
	}

	now := i.now().UTC()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (i *TokenIssuer) verify(token string, secret []byte) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return i.now().UTC() }))
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.Issuer != issuer || strings.TrimSpace(claims.Subject) == "" {
		return "", ErrInvalidToken
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
