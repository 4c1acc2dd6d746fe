package repository

import (
	"context"
	"time"

	"techservice/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RevokedTokenRepository is the durable revocation ledger. Rows are inserted
// once and never updated; the cache tiers in front of it are advisory only.
type RevokedTokenRepository struct {
	db *gorm.DB
}

func NewRevokedTokenRepository(db *gorm.DB) *RevokedTokenRepository {
	return &RevokedTokenRepository{db: db}
}

func (r *RevokedTokenRepository) Insert(ctx context.Context, jti string, userID int64, expiresAt time.Time, reason domain.RevocationReason) error {
	entry := domain.RevokedToken{
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt,
		Reason:    reason,
	}
	// Revoking the same jti twice (e.g. double logout) is a no-op.
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "jti"}}, DoNothing: true}).
		Create(&entry).Error
}

func (r *RevokedTokenRepository) ExistsByJTI(ctx context.Context, jti string) (bool, error) {
	var count int64
	tx := r.db.WithContext(ctx).Model(&domain.RevokedToken{}).
		Where("jti = ?", jti).
		Count(&count)
	if tx.Error != nil {
		return false, tx.Error
	}
	return count > 0, nil
}

func (r *RevokedTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&domain.RevokedToken{})
	return tx.RowsAffected, tx.Error
}
