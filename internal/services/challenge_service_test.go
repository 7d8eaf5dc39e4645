package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thelittlethings/backend/internal/models"
	"github.com/thelittlethings/backend/pkg/challenge"
)

func intPtr(v int) *int { return &v }

func (f *fixture) propose(t *testing.T, from, to *models.User, stake int) challenge.Challenge {
	t.Helper()
	c, err := f.challenges.Create(context.Background(), from.ID, challenge.CreateRequest{
		OpponentID:    to.ID,
		GoalList:      "Read 20 pages a day",
		StartDate:     "2026-03-01",
		EndDate:       "2026-03-31",
		TrophiesStake: intPtr(stake),
	})
	require.NoError(t, err)
	return c
}

func TestChallengeService_CreateRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob, carol := f.user(t, "alice", 0), f.user(t, "bob", 0), f.user(t, "carol", 0)
	f.befriend(t, alice, bob)

	cases := []struct {
		name string
		req  challenge.CreateRequest
	}{
		{"blank goals", challenge.CreateRequest{OpponentID: bob.ID, GoalList: "   "}},
		{"negative stake", challenge.CreateRequest{OpponentID: bob.ID, GoalList: "x", TrophiesStake: intPtr(-1)}},
		{"end before start", challenge.CreateRequest{OpponentID: bob.ID, GoalList: "x", StartDate: "2026-03-10", EndDate: "2026-03-01"}},
		{"bad date", challenge.CreateRequest{OpponentID: bob.ID, GoalList: "x", StartDate: "03/10/2026"}},
		{"self", challenge.CreateRequest{OpponentID: alice.ID, GoalList: "x"}},
		{"not friends", challenge.CreateRequest{OpponentID: carol.ID, GoalList: "x"}},
		{"missing opponent", challenge.CreateRequest{OpponentID: 999, GoalList: "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.challenges.Create(ctx, alice.ID, tc.req)
			assert.ErrorIs(t, err, challenge.ErrValidation)
		})
	}

	c, err := f.challenges.Create(ctx, alice.ID, challenge.CreateRequest{OpponentID: bob.ID, GoalList: " Run 5k "})
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusProposed, c.Status)
	assert.Equal(t, "Run 5k", c.GoalList)
	assert.Equal(t, 0, c.TrophiesStake)
	assert.Equal(t, "alice", c.ChallengerUsername)
	assert.Equal(t, "bob", c.OpponentUsername)
}

func TestChallengeService_ConfirmFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice", 100), f.user(t, "bob", 100)
	f.befriend(t, alice, bob)
	c := f.propose(t, alice, bob, 30)

	proposed, err := f.challenges.ListProposedTo(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, proposed, 1)

	_, err = f.challenges.Transition(ctx, alice.ID, c.ID, challenge.ActionAccept, 0)
	assert.ErrorIs(t, err, challenge.ErrForbidden)

	c, err = f.challenges.Transition(ctx, bob.ID, c.ID, challenge.ActionAccept, 0)
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusAccepted, c.Status)

	proposed, err = f.challenges.ListProposedTo(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, proposed)

	c, err = f.challenges.Transition(ctx, alice.ID, c.ID, challenge.ActionRequestComplete, 0)
	require.NoError(t, err)
	assert.Equal(t, "alice", c.CompletionRequestedByUsername)

	_, err = f.challenges.Transition(ctx, alice.ID, c.ID, challenge.ActionConfirmComplete, 0)
	assert.ErrorIs(t, err, challenge.ErrForbidden)

	c, err = f.challenges.Transition(ctx, bob.ID, c.ID, challenge.ActionConfirmComplete, 0)
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusCompleted, c.Status)
	assert.Nil(t, c.WinnerUsername)

	// the confirm path names no winner, so no trophies move
	assert.Equal(t, 100, f.trophies(t, alice))
	assert.Equal(t, 100, f.trophies(t, bob))

	events, err := f.challenges.Events(ctx, bob.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, challenge.ActionAccept, events[0].Action)
	assert.Equal(t, challenge.StatusProposed, events[0].From)
	assert.Equal(t, challenge.StatusCompleted, events[2].To)
}

func TestChallengeService_RejectResumes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice", 0), f.user(t, "bob", 0)
	f.befriend(t, alice, bob)
	c := f.propose(t, alice, bob, 0)

	_, err := f.challenges.Transition(ctx, bob.ID, c.ID, challenge.ActionAccept, 0)
	require.NoError(t, err)
	_, err = f.challenges.Transition(ctx, bob.ID, c.ID, challenge.ActionRequestComplete, 0)
	require.NoError(t, err)

	c, err = f.challenges.Transition(ctx, alice.ID, c.ID, challenge.ActionRejectComplete, 0)
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusAccepted, c.Status)
	assert.Nil(t, c.CompletionRequestedByID)

	stored, err := f.challenges.Get(ctx, alice.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusAccepted, stored.Status)
	assert.Empty(t, stored.CompletionRequestedByUsername)
}

func TestChallengeService_DirectCompleteMovesStake(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice", 100), f.user(t, "bob", 20)
	f.befriend(t, alice, bob)
	c := f.propose(t, alice, bob, 50)

	_, err := f.challenges.Transition(ctx, bob.ID, c.ID, challenge.ActionAccept, 0)
	require.NoError(t, err)

	_, err = f.challenges.Transition(ctx, bob.ID, c.ID, challenge.ActionComplete, 0)
	assert.ErrorIs(t, err, challenge.ErrValidation)

	c, err = f.challenges.Transition(ctx, bob.ID, c.ID, challenge.ActionComplete, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, c.WinnerUsername)
	assert.Equal(t, "alice", *c.WinnerUsername)

	assert.Equal(t, 150, f.trophies(t, alice))
	assert.Equal(t, 0, f.trophies(t, bob), "loser is floored at zero")

	_, err = f.challenges.Transition(ctx, alice.ID, c.ID, challenge.ActionComplete, alice.ID)
	assert.ErrorIs(t, err, challenge.ErrConflict)
	assert.Equal(t, 150, f.trophies(t, alice))
}

func TestChallengeService_ConcurrentAcceptLosesCAS(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice", 0), f.user(t, "bob", 0)
	f.befriend(t, alice, bob)
	c := f.propose(t, alice, bob, 0)

	// both requests read the challenge while it was still proposed
	stale, err := memoryRow(f, c.ID)
	require.NoError(t, err)

	_, err = f.challenges.Transition(ctx, bob.ID, c.ID, challenge.ActionAccept, 0)
	require.NoError(t, err)

	_, err = f.challenges.apply(ctx, stale, challenge.Transition{Action: challenge.ActionDecline, Actor: challenge.Actor{ID: bob.ID}})
	assert.ErrorIs(t, err, challenge.ErrConflict)

	stored, err := f.challenges.Get(ctx, bob.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusAccepted, stored.Status)
}

func TestChallengeService_StaleConfirmAfterReRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice", 100), f.user(t, "bob", 100)
	f.befriend(t, alice, bob)
	c := f.propose(t, alice, bob, 10)

	_, err := f.challenges.Transition(ctx, bob.ID, c.ID, challenge.ActionAccept, 0)
	require.NoError(t, err)
	_, err = f.challenges.Transition(ctx, alice.ID, c.ID, challenge.ActionRequestComplete, 0)
	require.NoError(t, err)

	// bob loads alice's request, then rejects it and files his own elsewhere
	stale, err := memoryRow(f, c.ID)
	require.NoError(t, err)
	_, err = f.challenges.Transition(ctx, bob.ID, c.ID, challenge.ActionRejectComplete, 0)
	require.NoError(t, err)
	_, err = f.challenges.Transition(ctx, bob.ID, c.ID, challenge.ActionRequestComplete, 0)
	require.NoError(t, err)

	_, err = f.challenges.apply(ctx, stale, challenge.Transition{
		Action: challenge.ActionConfirmComplete,
		Actor:  challenge.Actor{ID: bob.ID},
		At:     time.Now(),
	})
	assert.ErrorIs(t, err, challenge.ErrConflict)

	stored, err := f.challenges.Get(ctx, alice.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusCompletionRequested, stored.Status)
	require.NotNil(t, stored.CompletionRequestedByID)
	assert.Equal(t, bob.ID, *stored.CompletionRequestedByID)

	_, err = f.challenges.Transition(ctx, bob.ID, c.ID, challenge.ActionConfirmComplete, 0)
	assert.ErrorIs(t, err, challenge.ErrForbidden)
}

func TestChallengeService_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob, carol := f.user(t, "alice", 0), f.user(t, "bob", 0), f.user(t, "carol", 0)
	f.befriend(t, alice, bob)
	c := f.propose(t, alice, bob, 0)

	_, err := f.challenges.Get(ctx, carol.ID, c.ID)
	assert.ErrorIs(t, err, challenge.ErrNotFound)
	_, err = f.challenges.Events(ctx, carol.ID, c.ID)
	assert.ErrorIs(t, err, challenge.ErrNotFound)
	_, err = f.challenges.Transition(ctx, carol.ID, c.ID, challenge.ActionAccept, 0)
	assert.ErrorIs(t, err, challenge.ErrNotFound)
	_, err = f.challenges.Transition(ctx, alice.ID, c.ID, challenge.ActionAccept, 0)
	assert.ErrorIs(t, err, challenge.ErrForbidden, "the challenger is a party but cannot accept")
	_, err = f.challenges.Transition(ctx, alice.ID, 999, challenge.ActionAccept, 0)
	assert.ErrorIs(t, err, challenge.ErrNotFound)
	_, err = f.challenges.Transition(ctx, alice.ID, c.ID, challenge.ActionExpire, 0)
	assert.ErrorIs(t, err, challenge.ErrForbidden)

	mine, err := f.challenges.ListMine(ctx, carol.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestChallengeService_ListMineNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice", 0), f.user(t, "bob", 0)
	f.befriend(t, alice, bob)
	first := f.propose(t, alice, bob, 0)
	second := f.propose(t, bob, alice, 0)

	_, err := f.challenges.Transition(ctx, alice.ID, second.ID, challenge.ActionDecline, 0)
	require.NoError(t, err)

	mine, err := f.challenges.ListMine(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)
	assert.Equal(t, challenge.StatusDeclined, mine[0].Status)
}

func TestChallengeService_ExpireDue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice", 0), f.user(t, "bob", 0)
	f.befriend(t, alice, bob)

	due := f.propose(t, alice, bob, 0) // ends 2026-03-31
	running := f.propose(t, alice, bob, 0)
	_, err := f.challenges.Transition(ctx, bob.ID, running.ID, challenge.ActionAccept, 0)
	require.NoError(t, err)
	done := f.propose(t, alice, bob, 0)
	_, err = f.challenges.Transition(ctx, bob.ID, done.ID, challenge.ActionDecline, 0)
	require.NoError(t, err)
	open, err := f.challenges.Create(ctx, alice.ID, challenge.CreateRequest{OpponentID: bob.ID, GoalList: "no end"})
	require.NoError(t, err)

	// still the last day
	n, err := f.challenges.ExpireDue(ctx, time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = f.challenges.ExpireDue(ctx, time.Date(2026, 4, 1, 0, 5, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for id, want := range map[uint]challenge.Status{
		due.ID:     challenge.StatusExpired,
		running.ID: challenge.StatusExpired,
		done.ID:    challenge.StatusDeclined,
		open.ID:    challenge.StatusProposed,
	} {
		got, err := f.challenges.Get(ctx, alice.ID, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status, "challenge %d", id)
	}

	events, err := f.challenges.Events(ctx, alice.ID, due.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Zero(t, events[0].ActorID)
}

func TestChallengeService_EventFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice", 0), f.user(t, "bob", 0)
	f.befriend(t, alice, bob)
	c := f.propose(t, alice, bob, 0)

	f.events.Fail = errors.New("mongo down")
	c, err := f.challenges.Transition(ctx, bob.ID, c.ID, challenge.ActionAccept, 0)
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusAccepted, c.Status)
}

func TestChallengeService_NotifiesPartner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice", 0), f.user(t, "bob", 0)
	f.befriend(t, alice, bob)
	f.challenges.now = fixedClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	c := f.propose(t, alice, bob, 0)

	_, err := f.challenges.Transition(ctx, bob.ID, c.ID, challenge.ActionAccept, 0)
	require.NoError(t, err)

	notes, _, err := f.notes.GetByRecipientID(ctx, alice.ID, 1, 1)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationChallengeUpdated, notes[0].Type)
	assert.Equal(t, "bob accepted your challenge", notes[0].Message)
	assert.Equal(t, c.ID, notes[0].TargetID)
}
