package repositories

import (
	"context"

	"github.com/thelittlethings/backend/internal/models"
	"gorm.io/gorm"
)

// FriendshipRepository defines the interface for friendship data operations.
// Pair lookups take the two user ids in any order.
type FriendshipRepository interface {
	CreateFriendship(ctx context.Context, f *models.Friendship) error
	GetFriendshipByPair(ctx context.Context, u1, u2 uint) (*models.Friendship, error)
	SaveFriendship(ctx context.Context, f *models.Friendship) error
	DeleteFriendship(ctx context.Context, id uint) error
	GetUserFriends(ctx context.Context, userID uint) ([]models.Friendship, error)
	GetIncomingRequests(ctx context.Context, userID uint) ([]models.Friendship, error)
	AreFriends(ctx context.Context, u1, u2 uint) (bool, error)
}

// PostgresFriendshipRepository implements FriendshipRepository for PostgreSQL
type PostgresFriendshipRepository struct {
	db *gorm.DB
}

// NewPostgresFriendshipRepository creates a new PostgresFriendshipRepository
func NewPostgresFriendshipRepository(db *gorm.DB) *PostgresFriendshipRepository {
	return &PostgresFriendshipRepository{db: db}
}

func (r *PostgresFriendshipRepository) CreateFriendship(ctx context.Context, f *models.Friendship) error {
	f.UserAID, f.UserBID = models.OrderedPair(f.UserAID, f.UserBID)
	return translate(r.db.WithContext(ctx).Omit("UserA", "UserB").Create(f).Error)
}

func (r *PostgresFriendshipRepository) GetFriendshipByPair(ctx context.Context, u1, u2 uint) (*models.Friendship, error) {
	a, b := models.OrderedPair(u1, u2)
	var f models.Friendship
	err := r.db.WithContext(ctx).
		Preload("UserA").Preload("UserB").
		Where("user_a_id = ? AND user_b_id = ?", a, b).
		First(&f).Error
	if err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (r *PostgresFriendshipRepository) SaveFriendship(ctx context.Context, f *models.Friendship) error {
	return r.db.WithContext(ctx).Omit("UserA", "UserB").Save(f).Error
}

func (r *PostgresFriendshipRepository) DeleteFriendship(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Friendship{}, id).Error
}

// GetUserFriends retrieves all accepted friendships of a user
func (r *PostgresFriendshipRepository) GetUserFriends(ctx context.Context, userID uint) ([]models.Friendship, error) {
	var friendships []models.Friendship
	err := r.db.WithContext(ctx).
		Preload("UserA").Preload("UserB").
		Where("(user_a_id = ? OR user_b_id = ?) AND status = ?", userID, userID, models.FriendshipAccepted).
		Order("updated_at DESC").
		Find(&friendships).Error
	return friendships, err
}

// GetIncomingRequests retrieves pending requests the user has not sent
func (r *PostgresFriendshipRepository) GetIncomingRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	var friendships []models.Friendship
	err := r.db.WithContext(ctx).
		Preload("UserA").Preload("UserB").
		Where("(user_a_id = ? OR user_b_id = ?) AND status = ? AND requested_by_id <> ?",
			userID, userID, models.FriendshipPending, userID).
		Order("requested_at DESC").
		Find(&friendships).Error
	return friendships, err
}

func (r *PostgresFriendshipRepository) AreFriends(ctx context.Context, u1, u2 uint) (bool, error) {
	a, b := models.OrderedPair(u1, u2)
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_a_id = ? AND user_b_id = ? AND status = ?", a, b, models.FriendshipAccepted).
		Count(&count).Error
	return count > 0, err
}
