package challenge

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = Actor{ID: 1, Username: "alice"}
	bob   = Actor{ID: 2, Username: "bob"}
	carol = Actor{ID: 3, Username: "carol"}
)

func proposed() Challenge {
	return Challenge{
		ID:                 10,
		ChallengerID:       alice.ID,
		ChallengerUsername: alice.Username,
		OpponentID:         bob.ID,
		OpponentUsername:   bob.Username,
		GoalList:           "Run 10k",
		TrophiesStake:      50,
		Status:             StatusProposed,
	}
}

func withStatus(s Status) Challenge {
	c := proposed()
	c.Status = s
	return c
}

func requestedBy(a Actor) Challenge {
	c := withStatus(StatusAccepted)
	if err := Apply(&c, Transition{Action: ActionRequestComplete, Actor: a}); err != nil {
		panic(err)
	}
	return c
}

func TestApply_Rules(t *testing.T) {
	cases := []struct {
		name    string
		setup   Challenge
		tr      Transition
		want    Status
		wantErr error
	}{
		{"opponent accepts", proposed(), Transition{Action: ActionAccept, Actor: bob}, StatusAccepted, nil},
		{"challenger cannot accept", proposed(), Transition{Action: ActionAccept, Actor: alice}, "", ErrForbidden},
		{"stranger cannot accept", proposed(), Transition{Action: ActionAccept, Actor: carol}, "", ErrForbidden},
		{"accept twice conflicts", withStatus(StatusAccepted), Transition{Action: ActionAccept, Actor: bob}, "", ErrConflict},
		{"opponent declines", proposed(), Transition{Action: ActionDecline, Actor: bob}, StatusDeclined, nil},
		{"challenger cannot decline", proposed(), Transition{Action: ActionDecline, Actor: alice}, "", ErrForbidden},
		{"request from accepted", withStatus(StatusAccepted), Transition{Action: ActionRequestComplete, Actor: alice}, StatusCompletionRequested, nil},
		{"request from active", withStatus(StatusActive), Transition{Action: ActionRequestComplete, Actor: bob}, StatusCompletionRequested, nil},
		{"request from proposed conflicts", proposed(), Transition{Action: ActionRequestComplete, Actor: alice}, "", ErrConflict},
		{"stranger cannot request", withStatus(StatusAccepted), Transition{Action: ActionRequestComplete, Actor: carol}, "", ErrForbidden},
		{"partner confirms", requestedBy(alice), Transition{Action: ActionConfirmComplete, Actor: bob}, StatusCompleted, nil},
		{"requester cannot confirm", requestedBy(alice), Transition{Action: ActionConfirmComplete, Actor: alice}, "", ErrForbidden},
		{"requester cannot reject", requestedBy(bob), Transition{Action: ActionRejectComplete, Actor: bob}, "", ErrForbidden},
		{"confirm without request conflicts", withStatus(StatusAccepted), Transition{Action: ActionConfirmComplete, Actor: bob}, "", ErrConflict},
		{"partner rejects", requestedBy(alice), Transition{Action: ActionRejectComplete, Actor: bob}, StatusAccepted, nil},
		{"direct complete", withStatus(StatusActive), Transition{Action: ActionComplete, Actor: alice, WinnerID: bob.ID}, StatusCompleted, nil},
		{"direct complete needs winner", withStatus(StatusActive), Transition{Action: ActionComplete, Actor: alice}, "", ErrValidation},
		{"winner must be a party", withStatus(StatusActive), Transition{Action: ActionComplete, Actor: alice, WinnerID: carol.ID}, "", ErrValidation},
		{"direct complete while requested conflicts", requestedBy(alice), Transition{Action: ActionComplete, Actor: bob, WinnerID: bob.ID}, "", ErrConflict},
		{"system expires proposed", proposed(), Transition{Action: ActionExpire, Actor: System}, StatusExpired, nil},
		{"system expires completion request", requestedBy(bob), Transition{Action: ActionExpire, Actor: System}, StatusExpired, nil},
		{"party cannot expire", proposed(), Transition{Action: ActionExpire, Actor: alice}, "", ErrForbidden},
		{"expired is terminal", withStatus(StatusExpired), Transition{Action: ActionAccept, Actor: bob}, "", ErrConflict},
		{"completed is terminal", withStatus(StatusCompleted), Transition{Action: ActionExpire, Actor: System}, "", ErrConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.setup
			before := c
			err := Apply(&c, tc.tr)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
				assert.Equal(t, before, c, "failed transition must not modify the challenge")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, c.Status)
		})
	}
}

func TestApply_UnknownStatus(t *testing.T) {
	c := withStatus("archived")
	err := Apply(&c, Transition{Action: ActionAccept, Actor: bob})

	var unknown *UnknownStateError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "archived", unknown.Value)
}

func TestApply_RequestCompleteStampsRequester(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := withStatus(StatusActive)

	require.NoError(t, Apply(&c, Transition{Action: ActionRequestComplete, Actor: bob, At: at}))

	require.NotNil(t, c.CompletionRequestedByID)
	assert.Equal(t, bob.ID, *c.CompletionRequestedByID)
	assert.Equal(t, "bob", c.CompletionRequestedByUsername)
	assert.Equal(t, at, *c.CompletionRequestedAt)
	assert.Equal(t, StatusActive, c.ResumeStatus)
}

func TestApply_RejectResumesPreviousStatus(t *testing.T) {
	c := withStatus(StatusActive)
	require.NoError(t, Apply(&c, Transition{Action: ActionRequestComplete, Actor: alice}))
	require.NoError(t, Apply(&c, Transition{Action: ActionRejectComplete, Actor: bob}))

	assert.Equal(t, StatusActive, c.Status)
	assert.Nil(t, c.CompletionRequestedByID)
	assert.Empty(t, c.CompletionRequestedByUsername)
	assert.Nil(t, c.CompletionRequestedAt)

	// requesting again is allowed after a rejection
	require.NoError(t, Apply(&c, Transition{Action: ActionRequestComplete, Actor: bob}))
	assert.Equal(t, StatusCompletionRequested, c.Status)
}

func TestApply_DirectCompleteSetsWinner(t *testing.T) {
	c := withStatus(StatusAccepted)
	require.NoError(t, Apply(&c, Transition{Action: ActionComplete, Actor: bob, WinnerID: alice.ID}))

	require.NotNil(t, c.WinnerUsername)
	assert.Equal(t, "alice", *c.WinnerUsername)
	assert.Equal(t, alice.ID, *c.WinnerID)
}

func TestScenario_ProposeAcceptRequestConfirm(t *testing.T) {
	c := proposed()

	require.NoError(t, Apply(&c, Transition{Action: ActionAccept, Actor: bob}))
	assert.Equal(t, StatusAccepted, c.Status)

	require.NoError(t, Apply(&c, Transition{Action: ActionRequestComplete, Actor: alice}))
	assert.Equal(t, StatusCompletionRequested, c.Status)
	assert.Equal(t, alice.ID, *c.CompletionRequestedByID)

	require.NoError(t, Apply(&c, Transition{Action: ActionConfirmComplete, Actor: bob}))
	assert.Equal(t, StatusCompleted, c.Status)
	assert.True(t, c.Status.Terminal())

	err := Apply(&c, Transition{Action: ActionRequestComplete, Actor: alice})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestScenario_DeclineIsTerminal(t *testing.T) {
	c := proposed()
	require.NoError(t, Apply(&c, Transition{Action: ActionDecline, Actor: bob}))
	assert.Equal(t, StatusDeclined, c.Status)

	err := Apply(&c, Transition{Action: ActionAccept, Actor: bob})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, StatusDeclined, c.Status)
}

func TestCheck_DoesNotMutate(t *testing.T) {
	c := proposed()
	require.NoError(t, Check(c, Transition{Action: ActionAccept, Actor: bob}))
	assert.Equal(t, StatusProposed, c.Status)
}
