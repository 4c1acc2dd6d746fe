package auth

import (
	"context"
	"time"

	"techservice/internal/domain"
	"techservice/internal/pkg/token"
)

// UserRepositoryInterface — only the methods the auth service uses
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenRepositoryInterface — storage for refresh tokens
type RefreshTokenRepositoryInterface interface {
	Create(ctx context.Context, t *domain.RefreshToken) error
	GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error)
	MarkRevoked(ctx context.Context, id int64) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// RevocationLedgerInterface — the durable record of revoked access tokens
type RevocationLedgerInterface interface {
	Insert(ctx context.Context, jti string, userID int64, expiresAt time.Time, reason domain.RevocationReason) error
	ExistsByJTI(ctx context.Context, jti string) (bool, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type tokenManager interface {
	IssuePair(userID int64, email, role string) (token.Pair, error)
	Verify(tokenStr string, expected token.TokenType) (*token.Claims, error)
}

// EventPublisher pushes auth events (e.g. session revocations) to interested
// clients. Optional; a nil publisher disables it.
type EventPublisher interface {
	Publish(event any)
}
