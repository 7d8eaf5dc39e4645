package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/thelittlethings/backend/internal/models"
	"github.com/thelittlethings/backend/pkg/challenge"
	"gorm.io/gorm"
)

// ChallengeRepository defines the interface for friend challenge storage
type ChallengeRepository interface {
	CreateChallenge(ctx context.Context, ch *models.FriendChallenge) error
	GetChallengeByID(ctx context.Context, id uint) (*models.FriendChallenge, error)
	GetUserChallenges(ctx context.Context, userID uint) ([]models.FriendChallenge, error)
	GetProposedTo(ctx context.Context, userID uint) ([]models.FriendChallenge, error)
	GetDue(ctx context.Context, before time.Time) ([]models.FriendChallenge, error)
	// UpdateState saves the lifecycle fields of ch only if the stored row is
	// still at status from and at ch.Version. A lost race returns
	// challenge.ErrConflict. On success ch.Version is bumped. A non-nil
	// transfer is applied in the same transaction.
	UpdateState(ctx context.Context, ch *models.FriendChallenge, from challenge.Status, transfer *models.TrophyTransfer) error
}

// PostgresChallengeRepository implements ChallengeRepository for PostgreSQL
type PostgresChallengeRepository struct {
	db *gorm.DB
}

func NewPostgresChallengeRepository(db *gorm.DB) *PostgresChallengeRepository {
	return &PostgresChallengeRepository{db: db}
}

func (r *PostgresChallengeRepository) withParties(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Challenger").Preload("Opponent")
}

func (r *PostgresChallengeRepository) CreateChallenge(ctx context.Context, ch *models.FriendChallenge) error {
	if err := r.db.WithContext(ctx).Omit("Challenger", "Opponent", "Winner").Create(ch).Error; err != nil {
		return err
	}
	// reload so the caller gets both usernames
	return r.withParties(ctx).First(ch, ch.ID).Error
}

func (r *PostgresChallengeRepository) GetChallengeByID(ctx context.Context, id uint) (*models.FriendChallenge, error) {
	var ch models.FriendChallenge
	if err := r.withParties(ctx).First(&ch, id).Error; err != nil {
		return nil, translate(err)
	}
	return &ch, nil
}

// GetUserChallenges returns every challenge the user is a party of, newest first
func (r *PostgresChallengeRepository) GetUserChallenges(ctx context.Context, userID uint) ([]models.FriendChallenge, error) {
	var list []models.FriendChallenge
	err := r.withParties(ctx).
		Where("challenger_id = ? OR opponent_id = ?", userID, userID).
		Order("created_at DESC").Order("id DESC").
		Find(&list).Error
	return list, err
}

func (r *PostgresChallengeRepository) GetProposedTo(ctx context.Context, userID uint) ([]models.FriendChallenge, error) {
	var list []models.FriendChallenge
	err := r.withParties(ctx).
		Where("opponent_id = ? AND status = ?", userID, challenge.StatusProposed).
		Order("created_at DESC").Order("id DESC").
		Find(&list).Error
	return list, err
}

// GetDue returns non-terminal challenges whose end date is before the given day
func (r *PostgresChallengeRepository) GetDue(ctx context.Context, before time.Time) ([]models.FriendChallenge, error) {
	var list []models.FriendChallenge
	err := r.withParties(ctx).
		Where("end_date IS NOT NULL AND end_date < ?", before.Format(challenge.DateLayout)).
		Where("status NOT IN ?", []challenge.Status{challenge.StatusDeclined, challenge.StatusCompleted, challenge.StatusExpired}).
		Order("end_date ASC").
		Find(&list).Error
	return list, err
}

func (r *PostgresChallengeRepository) UpdateState(ctx context.Context, ch *models.FriendChallenge, from challenge.Status, transfer *models.TrophyTransfer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.FriendChallenge{}).
			Where("id = ? AND status = ? AND version = ?", ch.ID, from, ch.Version).
			Updates(map[string]interface{}{
				"version":                    gorm.Expr("version + 1"),
				"status":                     ch.Status,
				"resume_status":              ch.ResumeStatus,
				"completion_requested_by_id": ch.CompletionRequestedByID,
				"completion_requested_at":    ch.CompletionRequestedAt,
				"winner_id":                  ch.WinnerID,
				"updated_at":                 ch.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: challenge %d changed since it was read", challenge.ErrConflict, ch.ID)
		}
		ch.Version++

		if transfer == nil || transfer.Amount == 0 {
			return nil
		}
		if err := tx.Model(&models.User{}).Where("id = ?", transfer.WinnerID).
			Update("trophies", gorm.Expr("trophies + ?", transfer.Amount)).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", transfer.LoserID).
			Update("trophies", gorm.Expr("GREATEST(trophies - ?, 0)", transfer.Amount)).Error
	})
}
