package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/thelittlethings/backend/internal/models"
	"github.com/thelittlethings/backend/pkg/challenge"
)

type ChallengeRepository struct {
	s *Store
}

func NewChallengeRepository(s *Store) *ChallengeRepository {
	return &ChallengeRepository{s: s}
}

// hydrate fills the party associations. Callers hold mu.
func (r *ChallengeRepository) hydrate(ch models.FriendChallenge) models.FriendChallenge {
	ch.Challenger = r.s.users[ch.ChallengerID]
	ch.Opponent = r.s.users[ch.OpponentID]
	if ch.WinnerID != nil {
		w := r.s.users[*ch.WinnerID]
		ch.Winner = &w
	}
	return ch
}

func (r *ChallengeRepository) CreateChallenge(_ context.Context, ch *models.FriendChallenge) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	ch.ID = r.s.id()
	ch.CreatedAt, ch.UpdatedAt = now, now
	r.s.challenges[ch.ID] = *ch
	*ch = r.hydrate(*ch)
	return nil
}

func (r *ChallengeRepository) GetChallengeByID(_ context.Context, id uint) (*models.FriendChallenge, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ch, ok := r.s.challenges[id]
	if !ok {
		return nil, challenge.ErrNotFound
	}
	ch = r.hydrate(ch)
	return &ch, nil
}

func (r *ChallengeRepository) list(match func(models.FriendChallenge) bool) []models.FriendChallenge {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.FriendChallenge{}
	for _, ch := range r.s.challenges {
		if match(ch) {
			out = append(out, r.hydrate(ch))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *ChallengeRepository) GetUserChallenges(_ context.Context, userID uint) ([]models.FriendChallenge, error) {
	return r.list(func(ch models.FriendChallenge) bool {
		return ch.ChallengerID == userID || ch.OpponentID == userID
	}), nil
}

func (r *ChallengeRepository) GetProposedTo(_ context.Context, userID uint) ([]models.FriendChallenge, error) {
	return r.list(func(ch models.FriendChallenge) bool {
		return ch.OpponentID == userID && ch.Status == challenge.StatusProposed
	}), nil
}

func (r *ChallengeRepository) GetDue(_ context.Context, before time.Time) ([]models.FriendChallenge, error) {
	return r.list(func(ch models.FriendChallenge) bool {
		return ch.EndDate != nil && ch.EndDate.Before(before) && !ch.Status.Terminal()
	}), nil
}

func (r *ChallengeRepository) UpdateState(_ context.Context, ch *models.FriendChallenge, from challenge.Status, transfer *models.TrophyTransfer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.challenges[ch.ID]
	if !ok {
		return challenge.ErrNotFound
	}
	if stored.Status != from || stored.Version != ch.Version {
		return fmt.Errorf("%w: challenge %d changed since it was read", challenge.ErrConflict, ch.ID)
	}
	ch.Version++
	stored.Version = ch.Version
	stored.Status = ch.Status
	stored.ResumeStatus = ch.ResumeStatus
	stored.CompletionRequestedByID = ch.CompletionRequestedByID
	stored.CompletionRequestedAt = ch.CompletionRequestedAt
	stored.WinnerID = ch.WinnerID
	stored.UpdatedAt = ch.UpdatedAt
	r.s.challenges[ch.ID] = stored

	if transfer != nil && transfer.Amount > 0 {
		winner := r.s.users[transfer.WinnerID]
		winner.Trophies += transfer.Amount
		r.s.users[transfer.WinnerID] = winner

		loser := r.s.users[transfer.LoserID]
		loser.Trophies -= transfer.Amount
		if loser.Trophies < 0 {
			loser.Trophies = 0
		}
		r.s.users[transfer.LoserID] = loser
	}
	return nil
}
