package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thelittlethings/backend/internal/metrics"
	"github.com/thelittlethings/backend/internal/models"
	"github.com/thelittlethings/backend/internal/repositories"
	"github.com/thelittlethings/backend/pkg/challenge"
	"go.uber.org/zap"
)

// ChallengeService runs friend challenges through the lifecycle in
// pkg/challenge and persists the result.
type ChallengeService struct {
	challenges  repositories.ChallengeRepository
	friendships repositories.FriendshipRepository
	users       repositories.UserRepository
	events      repositories.ChallengeEventRepository
	notifier    *Notifier
	log         *zap.Logger
	now         func() time.Time
}

// NewChallengeService builds the service. events and notifier may be nil.
func NewChallengeService(
	challenges repositories.ChallengeRepository,
	friendships repositories.FriendshipRepository,
	users repositories.UserRepository,
	events repositories.ChallengeEventRepository,
	notifier *Notifier,
	log *zap.Logger,
) *ChallengeService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChallengeService{
		challenges:  challenges,
		friendships: friendships,
		users:       users,
		events:      events,
		notifier:    notifier,
		log:         log,
		now:         time.Now,
	}
}

// Create proposes a challenge from meID to a friend
func (s *ChallengeService) Create(ctx context.Context, meID uint, req challenge.CreateRequest) (challenge.Challenge, error) {
	goals := strings.TrimSpace(req.GoalList)
	if goals == "" {
		return challenge.Challenge{}, fmt.Errorf("%w: goalList is required", challenge.ErrValidation)
	}
	if req.Stake() < 0 {
		return challenge.Challenge{}, fmt.Errorf("%w: trophiesStake must not be negative", challenge.ErrValidation)
	}
	start, end, err := req.Dates()
	if err != nil {
		return challenge.Challenge{}, err
	}
	if req.OpponentID == meID {
		return challenge.Challenge{}, fmt.Errorf("%w: cannot challenge yourself", challenge.ErrValidation)
	}
	if _, err := s.users.GetUserByID(ctx, req.OpponentID); err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			return challenge.Challenge{}, fmt.Errorf("%w: opponent not found", challenge.ErrValidation)
		}
		return challenge.Challenge{}, err
	}
	friends, err := s.friendships.AreFriends(ctx, meID, req.OpponentID)
	if err != nil {
		return challenge.Challenge{}, err
	}
	if !friends {
		return challenge.Challenge{}, fmt.Errorf("%w: users are not friends", challenge.ErrValidation)
	}

	row := &models.FriendChallenge{
		ChallengerID:  meID,
		OpponentID:    req.OpponentID,
		GoalList:      goals,
		StartDate:     start,
		EndDate:       end,
		TrophiesStake: req.Stake(),
		Status:        challenge.StatusProposed,
	}
	if err := s.challenges.CreateChallenge(ctx, row); err != nil {
		return challenge.Challenge{}, err
	}
	c := row.ToChallenge()

	s.log.Info("challenge proposed",
		zap.Uint("challenge", c.ID), zap.Uint("challenger", meID), zap.Uint("opponent", c.OpponentID))
	s.notifier.Notify(ctx, models.Notification{
		Type:        models.NotificationChallengeProposed,
		ActorID:     meID,
		RecipientID: c.OpponentID,
		TargetID:    c.ID,
		TargetType:  "challenge",
		Message:     fmt.Sprintf("%s challenged you: %s", c.ChallengerUsername, goals),
	})
	return c, nil
}

// Get returns a challenge visible to meID. Non-parties see ErrNotFound.
func (s *ChallengeService) Get(ctx context.Context, meID, id uint) (challenge.Challenge, error) {
	row, err := s.challenges.GetChallengeByID(ctx, id)
	if err != nil {
		return challenge.Challenge{}, fmt.Errorf("challenge %d: %w", id, err)
	}
	c := row.ToChallenge()
	if !c.IsParty(meID) {
		return challenge.Challenge{}, fmt.Errorf("challenge %d: %w", id, challenge.ErrNotFound)
	}
	return c, nil
}

// ListMine returns every challenge meID takes part in, newest first
func (s *ChallengeService) ListMine(ctx context.Context, meID uint) ([]challenge.Challenge, error) {
	rows, err := s.challenges.GetUserChallenges(ctx, meID)
	if err != nil {
		return nil, err
	}
	return toChallenges(rows), nil
}

// ListProposedTo returns the open invitations addressed to meID
func (s *ChallengeService) ListProposedTo(ctx context.Context, meID uint) ([]challenge.Challenge, error) {
	rows, err := s.challenges.GetProposedTo(ctx, meID)
	if err != nil {
		return nil, err
	}
	return toChallenges(rows), nil
}

// Transition applies a user action. winnerID is only read for ActionComplete.
// Non-parties see ErrNotFound, as with Get.
func (s *ChallengeService) Transition(ctx context.Context, meID, id uint, action challenge.Action, winnerID uint) (challenge.Challenge, error) {
	if action == challenge.ActionExpire {
		return challenge.Challenge{}, fmt.Errorf("%w: only the system can expire a challenge", challenge.ErrForbidden)
	}
	row, err := s.challenges.GetChallengeByID(ctx, id)
	if err != nil {
		return challenge.Challenge{}, fmt.Errorf("challenge %d: %w", id, err)
	}
	if c := row.ToChallenge(); !c.IsParty(meID) {
		return challenge.Challenge{}, fmt.Errorf("challenge %d: %w", id, challenge.ErrNotFound)
	}
	return s.apply(ctx, row, challenge.Transition{
		Action:   action,
		Actor:    challenge.Actor{ID: meID},
		WinnerID: winnerID,
		At:       s.now(),
	})
}

// Events returns the recorded transitions of a challenge, oldest first
func (s *ChallengeService) Events(ctx context.Context, meID, id uint) ([]challenge.Event, error) {
	if _, err := s.Get(ctx, meID, id); err != nil {
		return nil, err
	}
	out := []challenge.Event{}
	if s.events == nil {
		return out, nil
	}
	docs, err := s.events.GetEventsByChallenge(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		out = append(out, docs[i].ToEvent())
	}
	return out, nil
}

// ExpireDue expires every open challenge whose end date lies before the UTC
// date of now. Challenges moved concurrently by a party are skipped.
func (s *ChallengeService) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	rows, err := s.challenges.GetDue(ctx, today)
	if err != nil {
		return 0, err
	}

	var errs []error
	expired := 0
	for i := range rows {
		_, err := s.apply(ctx, &rows[i], challenge.Transition{
			Action: challenge.ActionExpire,
			Actor:  challenge.System,
			At:     now,
		})
		switch {
		case err == nil:
			expired++
		case errors.Is(err, challenge.ErrConflict):
			s.log.Debug("skip expiry", zap.Uint("challenge", rows[i].ID), zap.Error(err))
		default:
			errs = append(errs, fmt.Errorf("expire challenge %d: %w", rows[i].ID, err))
		}
	}
	return expired, errors.Join(errs...)
}

func (s *ChallengeService) apply(ctx context.Context, row *models.FriendChallenge, t challenge.Transition) (challenge.Challenge, error) {
	c := row.ToChallenge()
	from := c.Status

	if err := challenge.Apply(&c, t); err != nil {
		metrics.ChallengeTransitions.WithLabelValues(string(t.Action), resultLabel(err)).Inc()
		return challenge.Challenge{}, err
	}
	row.ApplyState(c)

	var transfer *models.TrophyTransfer
	if t.Action == challenge.ActionComplete && row.TrophiesStake > 0 {
		transfer = &models.TrophyTransfer{
			WinnerID: t.WinnerID,
			LoserID:  c.PartnerOf(t.WinnerID),
			Amount:   row.TrophiesStake,
		}
	}
	if err := s.challenges.UpdateState(ctx, row, from, transfer); err != nil {
		metrics.ChallengeTransitions.WithLabelValues(string(t.Action), resultLabel(err)).Inc()
		return challenge.Challenge{}, err
	}
	metrics.ChallengeTransitions.WithLabelValues(string(t.Action), "ok").Inc()

	s.log.Info("challenge transition",
		zap.Uint("challenge", c.ID),
		zap.String("action", string(t.Action)),
		zap.Uint("actor", t.Actor.ID),
		zap.String("from", string(from)),
		zap.String("to", string(c.Status)))

	s.record(ctx, c, t, from)
	s.announce(ctx, c, t)
	return c, nil
}

func (s *ChallengeService) record(ctx context.Context, c challenge.Challenge, t challenge.Transition, from challenge.Status) {
	if s.events == nil {
		return
	}
	event := &models.ChallengeEvent{
		ChallengeID: c.ID,
		Action:      t.Action,
		ActorID:     t.Actor.ID,
		From:        from,
		To:          c.Status,
		At:          c.UpdatedAt,
	}
	if err := s.events.AppendEvent(ctx, event); err != nil {
		s.log.Warn("record challenge event", zap.Uint("challenge", c.ID), zap.Error(err))
	}
}

var transitionMessages = map[challenge.Action]string{
	challenge.ActionAccept:          "accepted your challenge",
	challenge.ActionDecline:         "declined your challenge",
	challenge.ActionRequestComplete: "asked to mark your challenge complete",
	challenge.ActionConfirmComplete: "confirmed your challenge is complete",
	challenge.ActionRejectComplete:  "rejected the completion request",
	challenge.ActionComplete:        "marked your challenge complete",
}

// announce tells the other party, or both parties for system transitions
func (s *ChallengeService) announce(ctx context.Context, c challenge.Challenge, t challenge.Transition) {
	kind := models.NotificationChallengeUpdated
	if c.Status == challenge.StatusCompleted {
		kind = models.NotificationChallengeCompleted
	}

	if t.Actor.IsSystem() {
		for _, id := range []uint{c.ChallengerID, c.OpponentID} {
			s.notifier.Notify(ctx, models.Notification{
				Type:        kind,
				RecipientID: id,
				TargetID:    c.ID,
				TargetType:  "challenge",
				Message:     fmt.Sprintf("your challenge with %s has expired", c.UsernameOf(c.PartnerOf(id))),
			})
		}
		return
	}

	msg := fmt.Sprintf("%s %s", c.UsernameOf(t.Actor.ID), transitionMessages[t.Action])
	if t.Action == challenge.ActionComplete && c.WinnerUsername != nil {
		msg += fmt.Sprintf(", winner: %s", *c.WinnerUsername)
	}
	s.notifier.Notify(ctx, models.Notification{
		Type:        kind,
		ActorID:     t.Actor.ID,
		RecipientID: c.PartnerOf(t.Actor.ID),
		TargetID:    c.ID,
		TargetType:  "challenge",
		Message:     msg,
	})
}

func resultLabel(err error) string {
	var unknown *challenge.UnknownStateError
	switch {
	case errors.As(err, &unknown):
		return "unknown_state"
	case errors.Is(err, challenge.ErrConflict):
		return "conflict"
	case errors.Is(err, challenge.ErrForbidden):
		return "forbidden"
	case errors.Is(err, challenge.ErrValidation):
		return "invalid"
	}
	return "error"
}

func toChallenges(rows []models.FriendChallenge) []challenge.Challenge {
	out := make([]challenge.Challenge, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToChallenge())
	}
	return out
}
