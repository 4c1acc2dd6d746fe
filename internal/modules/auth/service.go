package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"techservice/internal/domain"
	"techservice/internal/pkg/token"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// dummyHash is compared against when the email is unknown so that login
// latency does not reveal whether an account exists.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("login-timing-equalizer"), bcrypt.DefaultCost)

// Service orchestrates the token lifecycle: register, login, refresh with
// rotation, logout, and token validation against the revocation chain.
type Service struct {
	users         UserRepositoryInterface
	refreshTokens RefreshTokenRepositoryInterface
	ledger        RevocationLedgerInterface
	tokens        tokenManager
	revocation    *RevocationChecker
	events        EventPublisher // optional
	refreshTTL    time.Duration
}

type LoginResult struct {
	User   *domain.User
	Tokens token.Pair
}

func NewService(
	users UserRepositoryInterface,
	refreshTokens RefreshTokenRepositoryInterface,
	ledger RevocationLedgerInterface,
	tokens tokenManager,
	revocation *RevocationChecker,
	events EventPublisher,
	refreshTTL time.Duration,
) *Service {
	return &Service{
		users:         users,
		refreshTokens: refreshTokens,
		ledger:        ledger,
		tokens:        tokens,
		revocation:    revocation,
		events:        events,
		refreshTTL:    refreshTTL,
	}
}

// Register creates a principal. Role is fixed at creation time; the public
// endpoint always registers ordinary users, elevated roles come from seeding
// or an admin flow.
func (s *Service) Register(ctx context.Context, req RegisterRequest, role domain.UserRole) (*domain.User, error) {
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, errors.New("invalid role")
	}

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hashed),
		Role:         role,
		Name:         req.Name,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Address:      req.Address,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// Login verifies credentials and mints a token pair. The error path is
// deliberately identical for unknown email and wrong password.
func (s *Service) Login(ctx context.Context, req LoginRequest, userAgent, ip string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	if err := s.persistRefreshToken(ctx, user.ID, pair.RefreshToken, userAgent, ip); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &LoginResult{User: user, Tokens: pair}, nil
}

// Refresh exchanges a refresh token for a new pair, rotating the stored
// record: the presented token is revoked on first use, so a replayed copy
// fails with ErrRefreshTokenRevoked.
func (s *Service) Refresh(ctx context.Context, refreshRaw, userAgent, ip string) (*token.Pair, error) {
	claims, err := s.tokens.Verify(refreshRaw, token.TypeRefresh)
	if err != nil {
		return nil, err
	}

	record, err := s.refreshTokens.GetByHash(ctx, hashToken(refreshRaw))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, err
	}

	now := time.Now()
	if record.IsRevoked {
		return nil, ErrRefreshTokenRevoked
	}
	if record.IsExpired(now) {
		return nil, ErrRefreshTokenNotFound
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	if err := s.refreshTokens.MarkRevoked(ctx, record.ID); err != nil {
		return nil, err
	}
	if err := s.persistRefreshToken(ctx, user.ID, pair.RefreshToken, userAgent, ip); err != nil {
		return nil, err
	}

	return &pair, nil
}

// Logout revokes the presented access token only, not all sessions. The
// ledger write must complete before the caches are invalidated, and the
// local invalidation completes before we return, so the caller immediately
// observes the token as revoked on this node.
func (s *Service) Logout(ctx context.Context, userID int64, jti string, expiresAt time.Time) error {
	return s.RevokeAccessToken(ctx, userID, jti, expiresAt, domain.RevocationLogout)
}

// RevokeAccessToken writes a revocation ledger entry and invalidates the
// cache tiers. Shared by logout and the admin revoke endpoint.
func (s *Service) RevokeAccessToken(ctx context.Context, userID int64, jti string, expiresAt time.Time, reason domain.RevocationReason) error {
	if err := s.ledger.Insert(ctx, jti, userID, expiresAt, reason); err != nil {
		return err
	}
	s.revocation.Invalidate(ctx, jti, expiresAt)

	if s.events != nil {
		s.events.Publish(map[string]any{
			"type":    "session_revoked",
			"user_id": userID,
			"reason":  string(reason),
		})
	}
	return nil
}

// ValidateToken runs the full verification chain for an access token:
// signature and expiry, type, then revocation.
func (s *Service) ValidateToken(ctx context.Context, tokenStr string) (*token.Claims, error) {
	claims, err := s.tokens.Verify(tokenStr, token.TypeAccess)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revocation.IsRevoked(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

func (s *Service) GetProfile(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *Service) persistRefreshToken(ctx context.Context, userID int64, refreshRaw, userAgent, ip string) error {
	return s.refreshTokens.Create(ctx, &domain.RefreshToken{
		UserID:    userID,
		TokenHash: hashToken(refreshRaw),
		ExpiresAt: time.Now().Add(s.refreshTTL),
		UserAgent: nullableString(userAgent),
		IPAddress: nullableString(ip),
	})
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func nullableString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
