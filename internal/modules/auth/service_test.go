package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"techservice/internal/domain"
	"techservice/internal/pkg/token"
)

// Mock User Repository implementing the interface
type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// Mock Refresh Token Repository
type mockRefreshTokenRepo struct {
	mock.Mock
}

func (m *mockRefreshTokenRepo) Create(ctx context.Context, t *domain.RefreshToken) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockRefreshTokenRepo) GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepo) MarkRevoked(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRefreshTokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// Mock Revocation Ledger
type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Insert(ctx context.Context, jti string, userID int64, expiresAt time.Time, reason domain.RevocationReason) error {
	args := m.Called(ctx, jti, userID, expiresAt, reason)
	return args.Error(0)
}

func (m *mockLedger) ExistsByJTI(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

func (m *mockLedger) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func testTokenManager(t *testing.T) *token.Manager {
	t.Helper()
	m, err := token.NewManager("test-access-secret", "test-refresh-secret", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return m
}

func testRevocation(ledger RevocationLedgerInterface) *RevocationChecker {
	return NewRevocationChecker(newFakeStore(), nil, ledger, time.Minute, 5*time.Minute, time.Second, false)
}

func TestService_Register_Success(t *testing.T) {
	userRepo := new(mockUserRepo)
	refreshRepo := new(mockRefreshTokenRepo)
	ledger := newFakeLedger()

	userRepo.On("ExistsByEmail", mock.Anything, "test@example.com").Return(false, nil)
	userRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	service := NewService(userRepo, refreshRepo, ledger, testTokenManager(t), testRevocation(ledger), nil, 7*24*time.Hour)

	user, err := service.Register(context.Background(), RegisterRequest{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "securepass123",
	}, "")

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Empty(t, user.PasswordHash, "hash must not leave the service")

	userRepo.AssertExpectations(t)
}

func TestService_Register_EmailExists(t *testing.T) {
	userRepo := new(mockUserRepo)
	refreshRepo := new(mockRefreshTokenRepo)
	ledger := newFakeLedger()

	userRepo.On("ExistsByEmail", mock.Anything, "exists@example.com").Return(true, nil)

	service := NewService(userRepo, refreshRepo, ledger, testTokenManager(t), testRevocation(ledger), nil, 7*24*time.Hour)

	_, err := service.Register(context.Background(), RegisterRequest{
		Name:     "Test",
		Email:    "exists@example.com",
		Password: "securepass123",
	}, "")

	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestService_Login_Success(t *testing.T) {
	userRepo := new(mockUserRepo)
	refreshRepo := new(mockRefreshTokenRepo)
	ledger := newFakeLedger()

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	existingUser := &domain.User{
		ID:           10,
		Email:        "user@example.com",
		PasswordHash: string(hashed),
		Role:         domain.RoleUser,
	}

	userRepo.On("GetByEmail", mock.Anything, "user@example.com").Return(existingUser, nil)
	refreshRepo.On("Create", mock.Anything, mock.MatchedBy(func(rt *domain.RefreshToken) bool {
		return rt.UserID == 10 && rt.TokenHash != "" && rt.UserAgent != nil
	})).Return(nil)

	service := NewService(userRepo, refreshRepo, ledger, testTokenManager(t), testRevocation(ledger), nil, 7*24*time.Hour)

	result, err := service.Login(context.Background(), LoginRequest{
		Email:    "user@example.com",
		Password: "password123",
	}, "test-agent", "127.0.0.1")

	require.NoError(t, err)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)
	assert.Empty(t, result.User.PasswordHash)

	refreshRepo.AssertExpectations(t)
}

func TestService_Login_IndistinguishableFailures(t *testing.T) {
	userRepo := new(mockUserRepo)
	refreshRepo := new(mockRefreshTokenRepo)
	ledger := newFakeLedger()

	hashed, _ := bcrypt.GenerateFromPassword([]byte("rightpassword"), bcrypt.DefaultCost)
	existingUser := &domain.User{
		ID:           10,
		Email:        "known@example.com",
		PasswordHash: string(hashed),
		Role:         domain.RoleUser,
	}

	userRepo.On("GetByEmail", mock.Anything, "known@example.com").Return(existingUser, nil)
	userRepo.On("GetByEmail", mock.Anything, "unknown@example.com").Return(nil, gorm.ErrRecordNotFound)

	service := NewService(userRepo, refreshRepo, ledger, testTokenManager(t), testRevocation(ledger), nil, 7*24*time.Hour)

	// Wrong password on a known email and an unknown email must produce
	// the exact same error.
	_, errWrongPass := service.Login(context.Background(), LoginRequest{
		Email:    "known@example.com",
		Password: "wrongpassword",
	}, "", "")
	_, errNoUser := service.Login(context.Background(), LoginRequest{
		Email:    "unknown@example.com",
		Password: "whatever123",
	}, "", "")

	assert.ErrorIs(t, errWrongPass, ErrInvalidCredentials)
	assert.ErrorIs(t, errNoUser, ErrInvalidCredentials)
	assert.Equal(t, errWrongPass, errNoUser)
}

func TestService_Refresh_RotatesToken(t *testing.T) {
	userRepo := new(mockUserRepo)
	refreshRepo := new(mockRefreshTokenRepo)
	ledger := newFakeLedger()
	tokens := testTokenManager(t)

	user := &domain.User{ID: 10, Email: "user@example.com", Role: domain.RoleUser}
	pair, err := tokens.IssuePair(user.ID, user.Email, string(user.Role))
	require.NoError(t, err)

	record := &domain.RefreshToken{
		ID:        1,
		UserID:    user.ID,
		TokenHash: hashToken(pair.RefreshToken),
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}

	refreshRepo.On("GetByHash", mock.Anything, hashToken(pair.RefreshToken)).Return(record, nil)
	userRepo.On("GetByID", mock.Anything, int64(10)).Return(user, nil)
	refreshRepo.On("MarkRevoked", mock.Anything, int64(1)).Return(nil)
	refreshRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	service := NewService(userRepo, refreshRepo, ledger, tokens, testRevocation(ledger), nil, 7*24*time.Hour)

	newPair, err := service.Refresh(context.Background(), pair.RefreshToken, "agent", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, newPair.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

	refreshRepo.AssertExpectations(t)
}

func TestService_Refresh_ReplayRejected(t *testing.T) {
	userRepo := new(mockUserRepo)
	refreshRepo := new(mockRefreshTokenRepo)
	ledger := newFakeLedger()
	tokens := testTokenManager(t)

	pair, err := tokens.IssuePair(10, "user@example.com", "user")
	require.NoError(t, err)

	// Already rotated: the stored record is revoked.
	record := &domain.RefreshToken{
		ID:        1,
		UserID:    10,
		TokenHash: hashToken(pair.RefreshToken),
		ExpiresAt: time.Now().Add(24 * time.Hour),
		IsRevoked: true,
	}
	refreshRepo.On("GetByHash", mock.Anything, mock.Anything).Return(record, nil)

	service := NewService(userRepo, refreshRepo, ledger, tokens, testRevocation(ledger), nil, 7*24*time.Hour)

	_, err = service.Refresh(context.Background(), pair.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)
}

func TestService_Refresh_UnknownToken(t *testing.T) {
	userRepo := new(mockUserRepo)
	refreshRepo := new(mockRefreshTokenRepo)
	ledger := newFakeLedger()
	tokens := testTokenManager(t)

	pair, err := tokens.IssuePair(10, "user@example.com", "user")
	require.NoError(t, err)

	refreshRepo.On("GetByHash", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)

	service := NewService(userRepo, refreshRepo, ledger, tokens, testRevocation(ledger), nil, 7*24*time.Hour)

	_, err = service.Refresh(context.Background(), pair.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
}

func TestService_Refresh_ExpiredRecord(t *testing.T) {
	userRepo := new(mockUserRepo)
	refreshRepo := new(mockRefreshTokenRepo)
	ledger := newFakeLedger()
	tokens := testTokenManager(t)

	pair, err := tokens.IssuePair(10, "user@example.com", "user")
	require.NoError(t, err)

	// Signature is still valid but the stored record expired (TTL shortened
	// after issuance). Treated the same as not found.
	record := &domain.RefreshToken{
		ID:        1,
		UserID:    10,
		TokenHash: hashToken(pair.RefreshToken),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	refreshRepo.On("GetByHash", mock.Anything, mock.Anything).Return(record, nil)

	service := NewService(userRepo, refreshRepo, ledger, tokens, testRevocation(ledger), nil, 7*24*time.Hour)

	_, err = service.Refresh(context.Background(), pair.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
}

func TestService_Refresh_RejectsAccessToken(t *testing.T) {
	userRepo := new(mockUserRepo)
	refreshRepo := new(mockRefreshTokenRepo)
	ledger := newFakeLedger()
	tokens := testTokenManager(t)

	pair, err := tokens.IssuePair(10, "user@example.com", "user")
	require.NoError(t, err)

	service := NewService(userRepo, refreshRepo, ledger, tokens, testRevocation(ledger), nil, 7*24*time.Hour)

	_, err = service.Refresh(context.Background(), pair.AccessToken, "", "")
	assert.ErrorIs(t, err, token.ErrWrongTokenType)
	refreshRepo.AssertNotCalled(t, "GetByHash", mock.Anything, mock.Anything)
}

func TestService_Logout_RevokesPresentedToken(t *testing.T) {
	userRepo := new(mockUserRepo)
	refreshRepo := new(mockRefreshTokenRepo)
	ledger := newFakeLedger()
	tokens := testTokenManager(t)
	revocation := testRevocation(ledger)

	service := NewService(userRepo, refreshRepo, ledger, tokens, revocation, nil, 7*24*time.Hour)
	ctx := context.Background()

	expiresAt := time.Now().Add(15 * time.Minute)
	require.NoError(t, service.Logout(ctx, 10, "jti-logout", expiresAt))

	// Ledger row written and visible through the checker on this node.
	assert.True(t, ledger.jtis["jti-logout"])
	revoked, err := revocation.IsRevoked(ctx, "jti-logout", expiresAt)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestService_Logout_LedgerFailureAborts(t *testing.T) {
	userRepo := new(mockUserRepo)
	refreshRepo := new(mockRefreshTokenRepo)
	ledger := new(mockLedger)
	tokens := testTokenManager(t)

	ledger.On("Insert", mock.Anything, "jti-1", int64(10), mock.Anything, domain.RevocationLogout).
		Return(assert.AnError)

	service := NewService(userRepo, refreshRepo, ledger, tokens, testRevocation(ledger), nil, 7*24*time.Hour)

	err := service.Logout(context.Background(), 10, "jti-1", time.Now().Add(time.Minute))
	assert.Error(t, err)
	ledger.AssertExpectations(t)
}

func TestService_RevokeAccessToken_AdminReason(t *testing.T) {
	userRepo := new(mockUserRepo)
	refreshRepo := new(mockRefreshTokenRepo)
	ledger := new(mockLedger)
	tokens := testTokenManager(t)

	expiresAt := time.Now().Add(15 * time.Minute)
	ledger.On("Insert", mock.Anything, "jti-admin", int64(10), expiresAt, domain.RevocationAdmin).
		Return(nil)

	service := NewService(userRepo, refreshRepo, ledger, tokens, testRevocation(ledger), nil, 7*24*time.Hour)

	err := service.RevokeAccessToken(context.Background(), 10, "jti-admin", expiresAt, domain.RevocationAdmin)
	require.NoError(t, err)
	ledger.AssertExpectations(t)
}

func TestService_ValidateToken(t *testing.T) {
	userRepo := new(mockUserRepo)
	refreshRepo := new(mockRefreshTokenRepo)
	ledger := newFakeLedger()
	tokens := testTokenManager(t)

	service := NewService(userRepo, refreshRepo, ledger, tokens, testRevocation(ledger), nil, 7*24*time.Hour)
	ctx := context.Background()

	pair, err := tokens.IssuePair(10, "user@example.com", "user")
	require.NoError(t, err)

	claims, err := service.ValidateToken(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", claims.Email)

	// Revoke it; validation now fails with the revocation error.
	require.NoError(t, service.Logout(ctx, 10, claims.ID, claims.ExpiresAt.Time))

	_, err = service.ValidateToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// A refresh token never validates as access.
	_, err = service.ValidateToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, token.ErrWrongTokenType)
}

func TestService_GetProfile(t *testing.T) {
	userRepo := new(mockUserRepo)
	refreshRepo := new(mockRefreshTokenRepo)
	ledger := newFakeLedger()

	userRepo.On("GetByID", mock.Anything, int64(10)).Return(&domain.User{
		ID:           10,
		Email:        "user@example.com",
		PasswordHash: "secret-hash",
		Role:         domain.RoleUser,
	}, nil)

	service := NewService(userRepo, refreshRepo, ledger, testTokenManager(t), testRevocation(ledger), nil, 7*24*time.Hour)

	user, err := service.GetProfile(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)
}
