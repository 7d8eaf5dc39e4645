package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/thelittlethings/backend/pkg/challenge"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrInFlight is returned when an action is submitted for a challenge that
// already has one outstanding.
var ErrInFlight = errors.New("an action for this challenge is already in progress")

// Card is a challenge together with the session user's view of it
type Card struct {
	Challenge  challenge.Challenge
	Projection challenge.Projection
}

// ActionOptions carries per-action arguments
type ActionOptions struct {
	// WinnerUserID is required by ActionComplete.
	WinnerUserID uint
}

// Board keeps the "my challenges" and "invites" lists of one session and
// runs lifecycle actions against them. The server stays the source of truth:
// every successful action is followed by a reload.
type Board struct {
	client *Client
	log    *zap.Logger

	mu       sync.Mutex
	mine     []challenge.Challenge
	invites  []challenge.Challenge
	inFlight map[uint]bool
}

// NewBoard returns an empty board. Call Load to populate it.
func NewBoard(c *Client, log *zap.Logger) *Board {
	if log == nil {
		log = zap.NewNop()
	}
	return &Board{client: c, log: log, inFlight: make(map[uint]bool)}
}

// Load fetches both lists concurrently. The board only changes if both
// calls succeed.
func (b *Board) Load(ctx context.Context) error {
	var mine, invites []challenge.Challenge
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mine, err = b.client.ListMine(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		invites, err = b.client.ListProposedToMe(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	b.mu.Lock()
	b.mine, b.invites = mine, invites
	b.mu.Unlock()
	return nil
}

// Cards returns the session user's challenges with their projections
func (b *Board) Cards() []Card {
	b.mu.Lock()
	list := append([]challenge.Challenge(nil), b.mine...)
	b.mu.Unlock()
	return b.cards(list)
}

// Invites returns the open invites with their projections
func (b *Board) Invites() []Card {
	b.mu.Lock()
	list := append([]challenge.Challenge(nil), b.invites...)
	b.mu.Unlock()
	return b.cards(list)
}

func (b *Board) cards(list []challenge.Challenge) []Card {
	me := b.client.Session().CurrentUser()
	out := make([]Card, 0, len(list))
	for _, ch := range list {
		p, err := challenge.Project(ch, me)
		if err != nil {
			b.log.Warn("skipping challenge", zap.Uint("challenge", ch.ID), zap.Error(err))
			continue
		}
		out = append(out, Card{Challenge: ch, Projection: p})
	}
	return out
}

// Busy reports whether an action for id is outstanding
func (b *Board) Busy(id uint) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inFlight[id]
}

// Do runs one lifecycle action. A failed action leaves the board untouched.
// After a success, accept and decline drop the item from the invites list
// and the board reloads; a failed reload is logged and keeps the old data.
func (b *Board) Do(ctx context.Context, id uint, action challenge.Action, opts ActionOptions) (challenge.Challenge, error) {
	b.mu.Lock()
	if b.inFlight[id] {
		b.mu.Unlock()
		return challenge.Challenge{}, ErrInFlight
	}
	b.inFlight[id] = true
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.inFlight, id)
		b.mu.Unlock()
	}()

	updated, err := b.send(ctx, id, action, opts)
	if err != nil {
		return challenge.Challenge{}, err
	}

	if action == challenge.ActionAccept || action == challenge.ActionDecline {
		b.mu.Lock()
		b.invites = without(b.invites, id)
		b.mu.Unlock()
	}
	if err := b.Load(ctx); err != nil {
		b.log.Warn("refresh after action failed", zap.Uint("challenge", id), zap.String("action", string(action)), zap.Error(err))
	}
	return updated, nil
}

func (b *Board) send(ctx context.Context, id uint, action challenge.Action, opts ActionOptions) (challenge.Challenge, error) {
	switch action {
	case challenge.ActionAccept:
		return b.client.Accept(ctx, id)
	case challenge.ActionDecline:
		return b.client.Decline(ctx, id)
	case challenge.ActionRequestComplete:
		return b.client.RequestComplete(ctx, id)
	case challenge.ActionConfirmComplete:
		return b.client.ConfirmComplete(ctx, id)
	case challenge.ActionRejectComplete:
		return b.client.RejectComplete(ctx, id)
	case challenge.ActionComplete:
		if opts.WinnerUserID == 0 {
			return challenge.Challenge{}, fmt.Errorf("%w: a winner is required", challenge.ErrValidation)
		}
		return b.client.Complete(ctx, id, opts.WinnerUserID)
	}
	return challenge.Challenge{}, fmt.Errorf("%w: %q is not a user action", challenge.ErrValidation, action)
}

func without(list []challenge.Challenge, id uint) []challenge.Challenge {
	out := make([]challenge.Challenge, 0, len(list))
	for _, ch := range list {
		if ch.ID != id {
			out = append(out, ch)
		}
	}
	return out
}
