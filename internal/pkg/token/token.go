package token

import (
	"errors"
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

var (
	// ErrInvalidToken covers malformed tokens, bad signatures and expiry.
	// Callers must not leak which of those failed.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrWrongTokenType means a validly signed token was presented in the
	// wrong context (refresh where access is expected, or vice versa).
	ErrWrongTokenType = errors.New("wrong token type")
)

// Claims is the payload of both access and refresh tokens.
// Wire field names: sub, email, role, jti, type, iat, exp.
type Claims struct {
	Email string    `json:"email"`
	Role  string    `json:"role"`
	Type  TokenType `json:"type"`
	jwtlib.RegisteredClaims
}

// UserID parses the subject claim back into a principal id.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}

type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Manager signs and verifies access/refresh token pairs. Access and refresh
// tokens use separate secrets so a leaked refresh secret cannot mint access
// tokens directly.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*Manager, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token manager: signing secrets are required")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token manager: token TTLs must be > 0")
	}
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// IssuePair mints a signed access/refresh pair for a principal. Each token
// carries its own freshly generated jti. No side effects: persisting the
// refresh token hash is the session service's job.
func (m *Manager) IssuePair(userID int64, email, role string) (Pair, error) {
	now := time.Now()

	access, err := m.issue(now, TypeAccess, userID, email, role, m.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := m.issue(now, TypeRefresh, userID, email, role, m.refreshTTL)
	if err != nil {
		return Pair{}, err
	}

	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify checks signature, expiry and type, in that order. It performs no
// I/O; revocation is the caller's concern.
func (m *Manager) Verify(tokenStr string, expected TokenType) (*Claims, error) {
	var claims Claims

	parser := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithLeeway(30*time.Second), // clock skew tolerance
	)

	tok, err := parser.ParseWithClaims(tokenStr, &claims, func(t *jwtlib.Token) (any, error) {
		return m.secretFor(expected), nil
	})
	if err != nil || !tok.Valid {
		// The token may be validly signed with the other type's secret;
		// report that as a type mismatch rather than a bad signature.
		var other Claims
		otherTok, otherErr := parser.ParseWithClaims(tokenStr, &other, func(t *jwtlib.Token) (any, error) {
			return m.secretFor(otherType(expected)), nil
		})
		if otherErr == nil && otherTok.Valid && other.Type == otherType(expected) {
			return nil, ErrWrongTokenType
		}
		return nil, ErrInvalidToken
	}

	if claims.Type != expected {
		return nil, ErrWrongTokenType
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}

func (m *Manager) issue(now time.Time, typ TokenType, userID int64, email, role string, ttl time.Duration) (string, error) {
	claims := Claims{
		Email: email,
		Role:  role,
		Type:  typ,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}

	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return tok.SignedString(m.secretFor(typ))
}

func (m *Manager) secretFor(typ TokenType) []byte {
	if typ == TypeRefresh {
		return m.refreshSecret
	}
	return m.accessSecret
}

func otherType(typ TokenType) TokenType {
	if typ == TypeAccess {
		return TypeRefresh
	}
	return TypeAccess
}
