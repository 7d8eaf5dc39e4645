package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thelittlethings/backend/pkg/challenge"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const proposedJSON = `{"id":%d,"challengerId":2,"challengerUsername":"bob","opponentId":1,"opponentUsername":"alice","goalList":"Run","status":"%s"}`

// stubAPI serves fixed challenge lists and lets tests break or block routes
type stubAPI struct {
	mu        sync.Mutex
	mine      string
	proposed  string
	failLists bool
	failTrans bool
	hold      chan struct{}
	entered   chan struct{}
}

func (s *stubAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	mine, proposed, failLists, failTrans, hold, entered := s.mine, s.proposed, s.failLists, s.failTrans, s.hold, s.entered
	s.mu.Unlock()

	switch {
	case strings.HasSuffix(r.URL.Path, "/mine"), strings.HasSuffix(r.URL.Path, "/proposed"):
		if failLists {
			http.Error(w, "lists unavailable", http.StatusServiceUnavailable)
			return
		}
		if strings.HasSuffix(r.URL.Path, "/mine") {
			_, _ = fmt.Fprint(w, mine)
		} else {
			_, _ = fmt.Fprint(w, proposed)
		}
	default:
		if entered != nil {
			entered <- struct{}{}
		}
		if hold != nil {
			<-hold
		}
		if failTrans {
			w.WriteHeader(http.StatusConflict)
			_, _ = fmt.Fprint(w, `{"message":"challenge status does not allow this action"}`)
			return
		}
		_, _ = fmt.Fprintf(w, proposedJSON, 5, "accepted")
	}
}

func (s *stubAPI) set(fn func(*stubAPI)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func newStubBoard(t *testing.T, api *stubAPI) (*Board, *observer.ObservedLogs) {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	core, logs := observer.New(zap.DebugLevel)
	c := New(srv.URL, NewSession("t", 1, "alice"))
	return NewBoard(c, zap.New(core)), logs
}

func TestBoard_LoadKeepsOldListsOnFailure(t *testing.T) {
	api := &stubAPI{
		mine:     "[" + fmt.Sprintf(proposedJSON, 5, "proposed") + "]",
		proposed: "[" + fmt.Sprintf(proposedJSON, 5, "proposed") + "]",
	}
	board, _ := newStubBoard(t, api)
	require.NoError(t, board.Load(context.Background()))
	require.Len(t, board.Cards(), 1)

	api.set(func(s *stubAPI) { s.failLists = true })
	err := board.Load(context.Background())
	require.Error(t, err)
	assert.Len(t, board.Cards(), 1)
	assert.Len(t, board.Invites(), 1)
}

func TestBoard_CardsCarryProjection(t *testing.T) {
	api := &stubAPI{
		mine:     "[" + fmt.Sprintf(proposedJSON, 5, "proposed") + "," + fmt.Sprintf(proposedJSON, 6, "accepted") + "]",
		proposed: "[]",
	}
	board, _ := newStubBoard(t, api)
	require.NoError(t, board.Load(context.Background()))

	cards := board.Cards()
	require.Len(t, cards, 2)
	assert.Equal(t, challenge.RoleOpponent, cards[0].Projection.Role)
	assert.Equal(t, "bob", cards[0].Projection.PartnerUsername)
	assert.True(t, cards[0].Projection.Can(challenge.ActionAccept))
	assert.True(t, cards[1].Projection.Can(challenge.ActionRequestComplete))
}

func TestBoard_CardsSkipUnknownStatus(t *testing.T) {
	board := NewBoard(New("http://unused", NewSession("t", 1, "alice")), nil)
	board.mine = []challenge.Challenge{{ID: 1, ChallengerID: 2, OpponentID: 1, Status: "archived"}}
	assert.Empty(t, board.Cards())
}

func TestBoard_AcceptRemovesInviteEvenIfRefreshFails(t *testing.T) {
	api := &stubAPI{
		mine:     "[]",
		proposed: "[" + fmt.Sprintf(proposedJSON, 5, "proposed") + "]",
	}
	board, logs := newStubBoard(t, api)
	require.NoError(t, board.Load(context.Background()))
	require.Len(t, board.Invites(), 1)

	api.set(func(s *stubAPI) { s.failLists = true })
	updated, err := board.Do(context.Background(), 5, challenge.ActionAccept, ActionOptions{})
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusAccepted, updated.Status)
	assert.Empty(t, board.Invites())
	assert.Equal(t, 1, logs.FilterMessage("refresh after action failed").Len())
}

func TestBoard_FailedActionChangesNothing(t *testing.T) {
	api := &stubAPI{
		mine:      "[]",
		proposed:  "[" + fmt.Sprintf(proposedJSON, 5, "proposed") + "]",
		failTrans: true,
	}
	board, _ := newStubBoard(t, api)
	require.NoError(t, board.Load(context.Background()))

	_, err := board.Do(context.Background(), 5, challenge.ActionAccept, ActionOptions{})
	assert.ErrorIs(t, err, challenge.ErrConflict)
	assert.Len(t, board.Invites(), 1)
	assert.False(t, board.Busy(5))
}

func TestBoard_RejectsSecondSubmitWhileInFlight(t *testing.T) {
	api := &stubAPI{
		mine:     "[]",
		proposed: "[]",
		hold:     make(chan struct{}),
		entered:  make(chan struct{}, 1),
	}
	board, _ := newStubBoard(t, api)

	done := make(chan error, 1)
	go func() {
		_, err := board.Do(context.Background(), 5, challenge.ActionAccept, ActionOptions{})
		done <- err
	}()
	<-api.entered

	assert.True(t, board.Busy(5))
	_, err := board.Do(context.Background(), 5, challenge.ActionAccept, ActionOptions{})
	assert.ErrorIs(t, err, ErrInFlight)
	assert.False(t, board.Busy(6))

	close(api.hold)
	require.NoError(t, <-done)
	assert.False(t, board.Busy(5))
}

func TestBoard_CompleteNeedsWinner(t *testing.T) {
	board := NewBoard(New("http://unused", NewSession("t", 1, "alice")), nil)
	_, err := board.Do(context.Background(), 5, challenge.ActionComplete, ActionOptions{})
	assert.ErrorIs(t, err, challenge.ErrValidation)

	_, err = board.Do(context.Background(), 5, challenge.ActionExpire, ActionOptions{})
	assert.ErrorIs(t, err, challenge.ErrValidation)
	assert.False(t, board.Busy(5))
}

func TestBoard_AgainstServer(t *testing.T) {
	base := newAPI(t)
	ctx := context.Background()
	alice, bob := signUp(t, base, "alice"), signUp(t, base, "bob")
	makeFriends(t, alice, bob)

	created, err := alice.Create(ctx, challenge.CreateRequest{OpponentID: bob.Session().CurrentUser().ID, GoalList: "Read a book"})
	require.NoError(t, err)

	bobBoard := NewBoard(bob, nil)
	require.NoError(t, bobBoard.Load(ctx))
	invites := bobBoard.Invites()
	require.Len(t, invites, 1)
	assert.Equal(t, []challenge.Action{challenge.ActionAccept, challenge.ActionDecline}, invites[0].Projection.AvailableActions)

	_, err = bobBoard.Do(ctx, created.ID, challenge.ActionAccept, ActionOptions{})
	require.NoError(t, err)
	assert.Empty(t, bobBoard.Invites())
	cards := bobBoard.Cards()
	require.Len(t, cards, 1)
	assert.Equal(t, challenge.StatusAccepted, cards[0].Challenge.Status)

	aliceBoard := NewBoard(alice, nil)
	require.NoError(t, aliceBoard.Load(ctx))
	_, err = aliceBoard.Do(ctx, created.ID, challenge.ActionRequestComplete, ActionOptions{})
	require.NoError(t, err)
	mine := aliceBoard.Cards()
	require.Len(t, mine, 1)
	assert.True(t, mine[0].Projection.RequestedByMe)
	assert.True(t, mine[0].Projection.Waiting)

	require.NoError(t, bobBoard.Load(ctx))
	cards = bobBoard.Cards()
	require.Len(t, cards, 1)
	assert.True(t, cards[0].Projection.RequestedByPartner)

	_, err = bobBoard.Do(ctx, created.ID, challenge.ActionComplete, ActionOptions{WinnerUserID: bob.Session().CurrentUser().ID})
	assert.ErrorIs(t, err, challenge.ErrConflict)

	_, err = bobBoard.Do(ctx, created.ID, challenge.ActionConfirmComplete, ActionOptions{})
	require.NoError(t, err)
	cards = bobBoard.Cards()
	require.Len(t, cards, 1)
	assert.True(t, cards[0].Projection.Terminal)
	assert.Empty(t, cards[0].Projection.AvailableActions)
}
