package repositories

import (
	"context"
	"time"

	"github.com/thelittlethings/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenRepository tracks logged out JWT ids
type TokenRepository interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type PostgresTokenRepository struct {
	db *gorm.DB
}

func NewPostgresTokenRepository(db *gorm.DB) *PostgresTokenRepository {
	return &PostgresTokenRepository{db: db}
}

func (r *PostgresTokenRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RevokedToken{JTI: jti, ExpiresAt: expiresAt}).Error
}

func (r *PostgresTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RevokedToken{}).Where("jti = ?", jti).Count(&count).Error
	return count > 0, err
}

// PurgeExpired drops revocations for tokens that can no longer validate anyway
func (r *PostgresTokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.RevokedToken{})
	return res.RowsAffected, res.Error
}
