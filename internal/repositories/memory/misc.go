package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/thelittlethings/backend/internal/models"
	"github.com/thelittlethings/backend/pkg/challenge"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationRepository struct {
	s *Store
}

func NewNotificationRepository(s *Store) *NotificationRepository {
	return &NotificationRepository{s: s}
}

func (r *NotificationRepository) CreateNotification(_ context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n.ID = r.s.id()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	r.s.notifications[n.ID] = *n
	return nil
}

func (r *NotificationRepository) GetByRecipientID(_ context.Context, recipientID uint, page, limit int) ([]models.Notification, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var all []models.Notification
	for _, n := range r.s.notifications {
		if n.RecipientID == recipientID {
			all = append(all, n)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return []models.Notification{}, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *NotificationRepository) GetUnreadCount(_ context.Context, recipientID uint) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var count int64
	for _, n := range r.s.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepository) MarkAsRead(_ context.Context, recipientID, notificationID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifications[notificationID]
	if !ok || n.RecipientID != recipientID {
		return challenge.ErrNotFound
	}
	n.IsRead = true
	r.s.notifications[notificationID] = n
	return nil
}

func (r *NotificationRepository) MarkAllAsRead(_ context.Context, recipientID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, n := range r.s.notifications {
		if n.RecipientID == recipientID {
			n.IsRead = true
			r.s.notifications[id] = n
		}
	}
	return nil
}

type TokenRepository struct {
	s *Store
}

func NewTokenRepository(s *Store) *TokenRepository {
	return &TokenRepository{s: s}
}

func (r *TokenRepository) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.revoked[jti] = models.RevokedToken{JTI: jti, ExpiresAt: expiresAt}
	return nil
}

func (r *TokenRepository) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.revoked[jti]
	return ok, nil
}

func (r *TokenRepository) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for jti, t := range r.s.revoked {
		if t.ExpiresAt.Before(now) {
			delete(r.s.revoked, jti)
			n++
		}
	}
	return n, nil
}

type ChallengeEventRepository struct {
	s *Store
	// Fail, when set, is returned by AppendEvent.
	Fail error
}

func NewChallengeEventRepository(s *Store) *ChallengeEventRepository {
	return &ChallengeEventRepository{s: s}
}

func (r *ChallengeEventRepository) AppendEvent(_ context.Context, event *models.ChallengeEvent) error {
	if r.Fail != nil {
		return fmt.Errorf("append event: %w", r.Fail)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	event.ID = primitive.NewObjectID()
	r.s.events = append(r.s.events, *event)
	return nil
}

func (r *ChallengeEventRepository) GetEventsByChallenge(_ context.Context, challengeID uint) ([]models.ChallengeEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.ChallengeEvent{}
	for _, e := range r.s.events {
		if e.ChallengeID == challengeID {
			out = append(out, e)
		}
	}
	return out, nil
}
