package repositories

import (
	"context"
	"strings"

	"github.com/thelittlethings/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
	Leaderboard(ctx context.Context, region string, page, size int) ([]models.User, int64, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetUserByUsername matches case-insensitively
func (r *PostgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("firebase_uid = ?", firebaseUID).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// SearchUsers searches for users by username prefix or substring
func (r *PostgresUserRepository) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	var users []models.User
	q := "%" + strings.ToLower(query) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(username) LIKE ?", q).
		Order("username ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// Leaderboard returns one page of users ordered by trophies, highest first
func (r *PostgresUserRepository) Leaderboard(ctx context.Context, region string, page, size int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	query := r.db.WithContext(ctx).Model(&models.User{})
	if region != "" {
		query = query.Where("LOWER(region) = LOWER(?)", region)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("trophies DESC").Order("id ASC").
		Offset((page - 1) * size).Limit(size).
		Find(&users).Error
	return users, total, err
}
