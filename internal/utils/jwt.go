package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iliyamo/character-api/internal/model"
)

const (
	// DefaultAccessTTL is the lifetime of access tokens.
	DefaultAccessTTL = time.Hour
	// DefaultRefreshTTL is the lifetime of refresh tokens.
	DefaultRefreshTTL = 24 * time.Hour
)

var (
	// ErrInvalidToken covers malformed tokens, bad signatures and
	// unexpected signing algorithms.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for a well-signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrNotAccessToken is returned by VerifyAccess for a valid token of
	// another kind.  It wraps ErrInvalidToken.
	ErrNotAccessToken = fmt.Errorf("%w: not an access token", ErrInvalidToken)
)

// Token kinds carried in the typ claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// Claims is the claim set carried by both token kinds.  Access tokens fill
// every field; refresh tokens carry only the user id plus the registered
// claims.
type Claims struct {
	Type   string     `json:"typ"`
	UserID uint64     `json:"id"`
	Email  string     `json:"email,omitempty"`
	Role   model.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts verified access claims into the request identity.
func (c *Claims) Identity() model.Identity {
	id := model.Identity{UserID: c.UserID, Email: c.Email, Role: c.Role}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id
}

// TokenIssuer signs and verifies HS256 session tokens with a single shared
// secret.  The secret is passed in explicitly; nothing here reads the
// environment.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// IssuerOption customizes a TokenIssuer.
type IssuerOption func(*TokenIssuer)

// WithTTLs overrides the access and refresh lifetimes.  Non-positive values
// keep the defaults.
func WithTTLs(access, refresh time.Duration) IssuerOption {
	return func(t *TokenIssuer) {
		if access > 0 {
			t.accessTTL = access
		}
		if refresh > 0 {
			t.refreshTTL = refresh
		}
	}
}

// WithClock replaces time.Now; used by tests to mint already-expired tokens.
func WithClock(now func() time.Time) IssuerOption {
	return func(t *TokenIssuer) { t.now = now }
}

// NewTokenIssuer builds an issuer for secret.  An empty secret is rejected;
// substituting a default is the configuration layer's decision, not ours.
func NewTokenIssuer(secret string, opts ...IssuerOption) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("token issuer: empty signing secret")
	}
	t := &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Issue signs claims with an expiry of now+lifetime.  IssuedAt and a random
// token id are filled in so two tokens minted in the same second differ.
func (t *TokenIssuer) Issue(claims Claims, lifetime time.Duration) (string, error) {
	now := t.now().UTC()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(lifetime))
	claims.ID = uuid.NewString()
	if claims.UserID != 0 && claims.Subject == "" {
		claims.Subject = fmt.Sprint(claims.UserID)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// IssueAccess mints an access token carrying id, email and role.
func (t *TokenIssuer) IssueAccess(u model.User) (string, error) {
	return t.Issue(Claims{Type: TokenAccess, UserID: u.ID, Email: u.Email, Role: u.Role}, t.accessTTL)
}

// IssueRefresh mints a refresh token carrying only the user id.
func (t *TokenIssuer) IssueRefresh(u model.User) (string, error) {
	return t.Issue(Claims{Type: TokenRefresh, UserID: u.ID}, t.refreshTTL)
}

// Verify checks signature and expiry and returns the decoded claims.  It does
// not consult any revocation list; callers do that against the raw string.
func (t *TokenIssuer) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyAccess is Verify restricted to access tokens.  Refresh tokens are
// signed with the same secret and must not open authenticated routes.
func (t *TokenIssuer) VerifyAccess(raw string) (*Claims, error) {
	claims, err := t.Verify(raw)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenAccess {
		return nil, ErrNotAccessToken
	}
	return claims, nil
}

// RevocationExpiry reports until when a revoked token has to be remembered.
// The exp claim is read without checking the signature and capped at now
// plus the longest lifetime this issuer hands out: no token it signed can
// outlive that, so forged or unreadable tokens become prunable too.
func (t *TokenIssuer) RevocationExpiry(raw string) time.Time {
	horizon := t.now().Add(max(t.accessTTL, t.refreshTTL))
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil || claims.ExpiresAt == nil {
		return horizon
	}
	if exp := claims.ExpiresAt.Time; exp.Before(horizon) {
		return exp
	}
	return horizon
}
