package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/thelittlethings/backend/internal/models"
	"github.com/thelittlethings/backend/internal/repositories/memory"
)

type fixture struct {
	store      *memory.Store
	users      *memory.UserRepository
	friends    *FriendService
	challenges *ChallengeService
	events     *memory.ChallengeEventRepository
	notes      *memory.NotificationRepository
	pusher     *recordingPusher
}

type pushed struct {
	token, body string
	data        map[string]string
}

type recordingPusher struct {
	sent []pushed
}

func (p *recordingPusher) Push(_ context.Context, token, _, body string, data map[string]string) error {
	p.sent = append(p.sent, pushed{token: token, body: body, data: data})
	return nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store:  store,
		users:  memory.NewUserRepository(store),
		events: memory.NewChallengeEventRepository(store),
		notes:  memory.NewNotificationRepository(store),
		pusher: &recordingPusher{},
	}
	friendships := memory.NewFriendshipRepository(store)
	notifier := NewNotifier(f.notes, f.users, f.pusher, nil)
	f.friends = NewFriendService(friendships, f.users, notifier, nil)
	f.challenges = NewChallengeService(memory.NewChallengeRepository(store), friendships, f.users, f.events, notifier, nil)
	return f
}

func (f *fixture) user(t *testing.T, name string, trophies int) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Trophies: trophies}
	require.NoError(t, f.users.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) befriend(t *testing.T, a, b *models.User) {
	t.Helper()
	ctx := context.Background()
	_, err := f.friends.SendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = f.friends.Accept(ctx, b.ID, a.ID)
	require.NoError(t, err)
}

func (f *fixture) trophies(t *testing.T, u *models.User) int {
	t.Helper()
	fresh, err := f.users.GetUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	return fresh.Trophies
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func memoryRow(f *fixture, id uint) (*models.FriendChallenge, error) {
	return f.challenges.challenges.GetChallengeByID(context.Background(), id)
}
