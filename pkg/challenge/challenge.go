// Package challenge holds the friend challenge lifecycle shared by the API
// server and its clients: the status set, the transition rules, the error
// taxonomy, and the per-user projection used to gate UI actions.
package challenge

import "time"

// DateLayout is the calendar date format used for start and end dates
const DateLayout = "2006-01-02"

// Challenge is a head-to-head wager between two friends
type Challenge struct {
	ID                 uint   `json:"id"`
	ChallengerID       uint   `json:"challengerId"`
	ChallengerUsername string `json:"challengerUsername"`
	OpponentID         uint   `json:"opponentId"`
	OpponentUsername   string `json:"opponentUsername"`
	GoalList           string `json:"goalList"`
	StartDate          string `json:"startDate,omitempty"`
	EndDate            string `json:"endDate,omitempty"`
	TrophiesStake      int    `json:"trophiesStake"`
	Status             Status `json:"status"`

	CompletionRequestedByID       *uint      `json:"completionRequestedById,omitempty"`
	CompletionRequestedByUsername string     `json:"completionRequestedByUsername,omitempty"`
	CompletionRequestedAt         *time.Time `json:"completionRequestedAt,omitempty"`

	WinnerID       *uint   `json:"winnerId,omitempty"`
	WinnerUsername *string `json:"winnerUsername"`

	// ResumeStatus is where a rejected completion request returns to.
	ResumeStatus Status `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsParty reports whether userID is the challenger or the opponent
func (c *Challenge) IsParty(userID uint) bool {
	return userID != 0 && (c.ChallengerID == userID || c.OpponentID == userID)
}

// PartnerOf returns the id of the other party, or 0 if userID is not a party
func (c *Challenge) PartnerOf(userID uint) uint {
	switch userID {
	case c.ChallengerID:
		return c.OpponentID
	case c.OpponentID:
		return c.ChallengerID
	}
	return 0
}

// UsernameOf returns the username of a party
func (c *Challenge) UsernameOf(userID uint) string {
	switch userID {
	case c.ChallengerID:
		return c.ChallengerUsername
	case c.OpponentID:
		return c.OpponentUsername
	}
	return ""
}

func (c *Challenge) clearCompletionRequest() {
	c.CompletionRequestedByID = nil
	c.CompletionRequestedByUsername = ""
	c.CompletionRequestedAt = nil
}
