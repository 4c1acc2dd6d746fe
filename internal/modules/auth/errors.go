package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrTokenRevoked means the token's jti was found in the revocation
	// cache chain or ledger.
	ErrTokenRevoked = errors.New("token revoked")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token revoked")

	ErrRateLimited = errors.New("too many login attempts")

	// ErrNotVerifiable means the revocation chain could not answer in time.
	// The verifier fails closed on it.
	ErrNotVerifiable = errors.New("token not verifiable")
)
