package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/thelittlethings/backend/internal/models"
	"github.com/thelittlethings/backend/pkg/challenge"
)

type UserRepository struct {
	s *Store
}

func NewUserRepository(s *Store) *UserRepository {
	return &UserRepository{s: s}
}

func (r *UserRepository) CreateUser(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Username, user.Username) || strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("%w: duplicate key value violates unique constraint", challenge.ErrConflict)
		}
		if user.FirebaseUID != nil && u.FirebaseUID != nil && *u.FirebaseUID == *user.FirebaseUID {
			return fmt.Errorf("%w: duplicate key value violates unique constraint", challenge.ErrConflict)
		}
	}
	now := time.Now()
	user.ID = r.s.id()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *user
	return nil
}

func (r *UserRepository) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, challenge.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) find(match func(models.User) bool) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, challenge.ErrNotFound
}

func (r *UserRepository) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return strings.EqualFold(u.Username, username) })
}

func (r *UserRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *UserRepository) GetUserByFirebaseUID(_ context.Context, firebaseUID string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.FirebaseUID != nil && *u.FirebaseUID == firebaseUID })
}

func (r *UserRepository) UpdateUser(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return challenge.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	r.s.users[user.ID] = *user
	return nil
}

func (r *UserRepository) SearchUsers(_ context.Context, query string, limit int) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	q := strings.ToLower(query)
	var out []models.User
	for _, u := range r.s.users {
		if strings.Contains(strings.ToLower(u.Username), q) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *UserRepository) Leaderboard(_ context.Context, region string, page, size int) ([]models.User, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var all []models.User
	for _, u := range r.s.users {
		if region == "" || strings.EqualFold(u.Region, region) {
			all = append(all, u)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Trophies != all[j].Trophies {
			return all[i].Trophies > all[j].Trophies
		}
		return all[i].ID < all[j].ID
	})

	total := int64(len(all))
	start := (page - 1) * size
	if start >= len(all) {
		return []models.User{}, total, nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}
