package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thelittlethings/backend/internal/models"
	"github.com/thelittlethings/backend/internal/repositories"
	"github.com/thelittlethings/backend/pkg/challenge"
	"go.uber.org/zap"
)

// FriendService owns the friendship workflow. Every operation addresses a
// friendship by the pair of users, never by its row id.
type FriendService struct {
	friendships repositories.FriendshipRepository
	users       repositories.UserRepository
	notifier    *Notifier
	log         *zap.Logger
	now         func() time.Time
}

func NewFriendService(friendships repositories.FriendshipRepository, users repositories.UserRepository, notifier *Notifier, log *zap.Logger) *FriendService {
	if log == nil {
		log = zap.NewNop()
	}
	return &FriendService{friendships: friendships, users: users, notifier: notifier, log: log, now: time.Now}
}

func (s *FriendService) SendRequest(ctx context.Context, meID, targetID uint) (*models.Friendship, error) {
	if meID == targetID {
		return nil, fmt.Errorf("%w: cannot friend yourself", challenge.ErrValidation)
	}
	if _, err := s.users.GetUserByID(ctx, targetID); err != nil {
		return nil, fmt.Errorf("target user: %w", err)
	}
	return s.request(ctx, meID, targetID)
}

func (s *FriendService) SendRequestByUsername(ctx context.Context, meID uint, username string) (*models.Friendship, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username required", challenge.ErrValidation)
	}
	target, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("target user: %w", err)
	}
	if target.ID == meID {
		return nil, fmt.Errorf("%w: cannot friend yourself", challenge.ErrValidation)
	}
	return s.request(ctx, meID, target.ID)
}

func (s *FriendService) request(ctx context.Context, meID, targetID uint) (*models.Friendship, error) {
	now := s.now()
	f, err := s.friendships.GetFriendshipByPair(ctx, meID, targetID)
	switch {
	case errors.Is(err, challenge.ErrNotFound):
		f = &models.Friendship{
			UserAID:       meID,
			UserBID:       targetID,
			Status:        models.FriendshipPending,
			RequestedByID: meID,
			RequestedAt:   now,
			UpdatedAt:     now,
		}
		if err := s.friendships.CreateFriendship(ctx, f); err != nil {
			if errors.Is(err, challenge.ErrConflict) {
				// the other user's request landed first
				return nil, fmt.Errorf("%w: request already pending", challenge.ErrConflict)
			}
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		switch f.Status {
		case models.FriendshipAccepted:
			return nil, fmt.Errorf("%w: already friends", challenge.ErrConflict)
		case models.FriendshipPending:
			return nil, fmt.Errorf("%w: request already pending", challenge.ErrConflict)
		case models.FriendshipBlocked:
			return nil, fmt.Errorf("%w: cannot send a request to this user", challenge.ErrForbidden)
		}
		// a declined or canceled pair is reopened by the new requester
		f.Status = models.FriendshipPending
		f.RequestedByID = meID
		f.RespondedByID = nil
		f.RespondedAt = nil
		f.RequestedAt = now
		f.UpdatedAt = now
		if err := s.friendships.SaveFriendship(ctx, f); err != nil {
			return nil, err
		}
	}

	s.notifier.Notify(ctx, models.Notification{
		Type:        models.NotificationFriendRequest,
		ActorID:     meID,
		RecipientID: targetID,
		TargetID:    f.ID,
		TargetType:  "friendship",
		Message:     "sent you a friend request",
	})
	return s.friendships.GetFriendshipByPair(ctx, meID, targetID)
}

func (s *FriendService) pending(ctx context.Context, meID, otherID uint) (*models.Friendship, error) {
	f, err := s.friendships.GetFriendshipByPair(ctx, meID, otherID)
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			return nil, fmt.Errorf("no request found: %w", err)
		}
		return nil, err
	}
	if f.Status != models.FriendshipPending {
		return nil, fmt.Errorf("%w: request is not pending", challenge.ErrConflict)
	}
	return f, nil
}

func (s *FriendService) respond(ctx context.Context, f *models.Friendship, meID uint, status models.FriendshipStatus) (*models.Friendship, error) {
	now := s.now()
	f.Status = status
	f.RespondedByID = &meID
	f.RespondedAt = &now
	f.UpdatedAt = now
	if err := s.friendships.SaveFriendship(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Accept answers a pending request sent by otherID
func (s *FriendService) Accept(ctx context.Context, meID, otherID uint) (*models.Friendship, error) {
	f, err := s.pending(ctx, meID, otherID)
	if err != nil {
		return nil, err
	}
	if f.RequestedByID == meID {
		return nil, fmt.Errorf("%w: cannot accept your own request", challenge.ErrForbidden)
	}
	if f, err = s.respond(ctx, f, meID, models.FriendshipAccepted); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, models.Notification{
		Type:        models.NotificationFriendAccepted,
		ActorID:     meID,
		RecipientID: otherID,
		TargetID:    f.ID,
		TargetType:  "friendship",
		Message:     "accepted your friend request",
	})
	return f, nil
}

func (s *FriendService) Decline(ctx context.Context, meID, otherID uint) (*models.Friendship, error) {
	f, err := s.pending(ctx, meID, otherID)
	if err != nil {
		return nil, err
	}
	if f.RequestedByID == meID {
		return nil, fmt.Errorf("%w: requester cannot decline", challenge.ErrForbidden)
	}
	return s.respond(ctx, f, meID, models.FriendshipDeclined)
}

// Cancel withdraws a request meID sent to otherID
func (s *FriendService) Cancel(ctx context.Context, meID, otherID uint) (*models.Friendship, error) {
	f, err := s.pending(ctx, meID, otherID)
	if err != nil {
		return nil, err
	}
	if f.RequestedByID != meID {
		return nil, fmt.Errorf("%w: only the requester can cancel", challenge.ErrForbidden)
	}
	return s.respond(ctx, f, meID, models.FriendshipCanceled)
}

// Remove unfriends an accepted friend
func (s *FriendService) Remove(ctx context.Context, meID, friendID uint) error {
	f, err := s.friendships.GetFriendshipByPair(ctx, meID, friendID)
	if err != nil {
		return fmt.Errorf("friendship: %w", err)
	}
	if f.Status != models.FriendshipAccepted {
		return fmt.Errorf("%w: not friends", challenge.ErrConflict)
	}
	return s.friendships.DeleteFriendship(ctx, f.ID)
}

func (s *FriendService) ListFriends(ctx context.Context, meID uint) ([]models.Friendship, error) {
	return s.friendships.GetUserFriends(ctx, meID)
}

func (s *FriendService) ListIncoming(ctx context.Context, meID uint) ([]models.Friendship, error) {
	return s.friendships.GetIncomingRequests(ctx, meID)
}
