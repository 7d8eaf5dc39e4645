package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/thelittlethings/backend/internal/models"
	"github.com/thelittlethings/backend/pkg/challenge"
)

type FriendshipRepository struct {
	s *Store
}

func NewFriendshipRepository(s *Store) *FriendshipRepository {
	return &FriendshipRepository{s: s}
}

// hydrate fills the user associations. Callers hold mu.
func (r *FriendshipRepository) hydrate(f models.Friendship) models.Friendship {
	f.UserA = r.s.users[f.UserAID]
	f.UserB = r.s.users[f.UserBID]
	return f
}

func (r *FriendshipRepository) CreateFriendship(_ context.Context, f *models.Friendship) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	f.UserAID, f.UserBID = models.OrderedPair(f.UserAID, f.UserBID)
	for _, existing := range r.s.friendships {
		if existing.UserAID == f.UserAID && existing.UserBID == f.UserBID {
			return fmt.Errorf("%w: duplicate key value violates unique constraint %q", challenge.ErrConflict, "uq_friend_pair")
		}
	}
	f.ID = r.s.id()
	r.s.friendships[f.ID] = *f
	return nil
}

func (r *FriendshipRepository) GetFriendshipByPair(_ context.Context, u1, u2 uint) (*models.Friendship, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, b := models.OrderedPair(u1, u2)
	for _, f := range r.s.friendships {
		if f.UserAID == a && f.UserBID == b {
			f = r.hydrate(f)
			return &f, nil
		}
	}
	return nil, challenge.ErrNotFound
}

func (r *FriendshipRepository) SaveFriendship(_ context.Context, f *models.Friendship) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.friendships[f.ID]; !ok {
		return challenge.ErrNotFound
	}
	r.s.friendships[f.ID] = *f
	return nil
}

func (r *FriendshipRepository) DeleteFriendship(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.friendships, id)
	return nil
}

func (r *FriendshipRepository) list(match func(models.Friendship) bool) []models.Friendship {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.Friendship{}
	for _, f := range r.s.friendships {
		if match(f) {
			out = append(out, r.hydrate(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *FriendshipRepository) GetUserFriends(_ context.Context, userID uint) ([]models.Friendship, error) {
	return r.list(func(f models.Friendship) bool {
		return (f.UserAID == userID || f.UserBID == userID) && f.Status == models.FriendshipAccepted
	}), nil
}

func (r *FriendshipRepository) GetIncomingRequests(_ context.Context, userID uint) ([]models.Friendship, error) {
	return r.list(func(f models.Friendship) bool {
		return (f.UserAID == userID || f.UserBID == userID) &&
			f.Status == models.FriendshipPending && f.RequestedByID != userID
	}), nil
}

func (r *FriendshipRepository) AreFriends(ctx context.Context, u1, u2 uint) (bool, error) {
	f, err := r.GetFriendshipByPair(ctx, u1, u2)
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return f.Status == models.FriendshipAccepted, nil
}
