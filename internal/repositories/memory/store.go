// Package memory is an in-process implementation of the repository
// interfaces. It backs STORAGE=memory and the service and handler tests.
package memory

import (
	"sync"

	"github.com/thelittlethings/backend/internal/models"
	"github.com/thelittlethings/backend/internal/repositories"
)

// Store holds every table behind a single lock. Repositories built from the
// same Store see each other's writes, so a challenge can load its parties.
type Store struct {
	mu sync.RWMutex

	nextID        uint
	users         map[uint]models.User
	friendships   map[uint]models.Friendship
	challenges    map[uint]models.FriendChallenge
	notifications map[uint]models.Notification
	revoked       map[string]models.RevokedToken
	events        []models.ChallengeEvent
}

func NewStore() *Store {
	return &Store{
		users:         make(map[uint]models.User),
		friendships:   make(map[uint]models.Friendship),
		challenges:    make(map[uint]models.FriendChallenge),
		notifications: make(map[uint]models.Notification),
		revoked:       make(map[string]models.RevokedToken),
	}
}

// id hands out ids shared across tables. Callers hold mu.
func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

var (
	_ repositories.UserRepository           = (*UserRepository)(nil)
	_ repositories.FriendshipRepository     = (*FriendshipRepository)(nil)
	_ repositories.ChallengeRepository      = (*ChallengeRepository)(nil)
	_ repositories.NotificationRepository   = (*NotificationRepository)(nil)
	_ repositories.TokenRepository          = (*TokenRepository)(nil)
	_ repositories.ChallengeEventRepository = (*ChallengeEventRepository)(nil)
)
