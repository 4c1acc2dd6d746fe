package domain

import "time"

type RevocationReason string

const (
	RevocationLogout     RevocationReason = "logout"
	RevocationAdmin      RevocationReason = "admin_revoke"
	RevocationSuspicious RevocationReason = "suspicious_activity"
)

// RevokedToken is a ledger entry for an access token invalidated before its
// natural expiry. Rows are immutable; the sweeper deletes them once ExpiresAt
// passes and the verifier's own expiry check takes over.
type RevokedToken struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	JTI    string `json:"jti" gorm:"size:36;uniqueIndex;not null"`
	UserID int64  `json:"user_id" gorm:"index;not null"`

	ExpiresAt time.Time        `json:"expires_at" gorm:"index;not null"`
	Reason    RevocationReason `json:"reason" gorm:"not null;default:logout"`

	RevokedAt time.Time `json:"revoked_at" gorm:"autoCreateTime"`
}
