package models

import (
	"time"

	"github.com/thelittlethings/backend/pkg/challenge"
)

// FriendChallenge is the persisted form of a challenge between two friends
type FriendChallenge struct {
	ID            uint             `gorm:"primaryKey"`
	ChallengerID  uint             `gorm:"not null;index"`
	Challenger    User             `gorm:"foreignKey:ChallengerID"`
	OpponentID    uint             `gorm:"not null;index"`
	Opponent      User             `gorm:"foreignKey:OpponentID"`
	GoalList      string           `gorm:"type:text;not null"`
	StartDate     *time.Time       `gorm:"type:date"`
	EndDate       *time.Time       `gorm:"type:date;index"`
	TrophiesStake int              `gorm:"not null;default:0"`
	Status        challenge.Status `gorm:"type:varchar(24);not null;index"`
	ResumeStatus  challenge.Status `gorm:"type:varchar(24)"`

	CompletionRequestedByID *uint
	CompletionRequestedAt   *time.Time

	WinnerID *uint
	Winner   *User `gorm:"foreignKey:WinnerID"`

	// Version is bumped by every state write
	Version uint `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (FriendChallenge) TableName() string {
	return "friend_challenges"
}

// ToChallenge converts the row into the wire/lifecycle representation.
// Challenger and Opponent must be loaded.
func (m *FriendChallenge) ToChallenge() challenge.Challenge {
	c := challenge.Challenge{
		ID:                      m.ID,
		ChallengerID:            m.ChallengerID,
		ChallengerUsername:      m.Challenger.Username,
		OpponentID:              m.OpponentID,
		OpponentUsername:        m.Opponent.Username,
		GoalList:                m.GoalList,
		StartDate:               challenge.FormatDate(m.StartDate),
		EndDate:                 challenge.FormatDate(m.EndDate),
		TrophiesStake:           m.TrophiesStake,
		Status:                  m.Status,
		ResumeStatus:            m.ResumeStatus,
		CompletionRequestedByID: m.CompletionRequestedByID,
		CompletionRequestedAt:   m.CompletionRequestedAt,
		WinnerID:                m.WinnerID,
		CreatedAt:               m.CreatedAt,
		UpdatedAt:               m.UpdatedAt,
	}
	if m.CompletionRequestedByID != nil {
		c.CompletionRequestedByUsername = c.UsernameOf(*m.CompletionRequestedByID)
	}
	if m.WinnerID != nil {
		name := c.UsernameOf(*m.WinnerID)
		c.WinnerUsername = &name
	}
	return c
}

// ApplyState copies the lifecycle fields of c back onto the row
func (m *FriendChallenge) ApplyState(c challenge.Challenge) {
	m.Status = c.Status
	m.ResumeStatus = c.ResumeStatus
	m.CompletionRequestedByID = c.CompletionRequestedByID
	m.CompletionRequestedAt = c.CompletionRequestedAt
	m.WinnerID = c.WinnerID
	m.UpdatedAt = c.UpdatedAt
}

// TrophyTransfer moves a stake from the loser to the winner
type TrophyTransfer struct {
	WinnerID uint
	LoserID  uint
	Amount   int
}
