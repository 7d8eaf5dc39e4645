package challenge

import (
	"fmt"
	"strings"
	"time"
)

// CreateRequest is the body of a new challenge proposal
type CreateRequest struct {
	OpponentID    uint   `json:"opponentId" validate:"required"`
	GoalList      string `json:"goalList" validate:"notblank,max=2000"`
	StartDate     string `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate       string `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TrophiesStake *int   `json:"trophiesStake,omitempty" validate:"omitempty,min=0"`
}

// Stake returns the requested stake, defaulting to 0
func (r CreateRequest) Stake() int {
	if r.TrophiesStake == nil {
		return 0
	}
	return *r.TrophiesStake
}

// Dates parses the optional start and end dates and checks their order
func (r CreateRequest) Dates() (start, end *time.Time, err error) {
	if start, err = parseDate(r.StartDate); err != nil {
		return nil, nil, fmt.Errorf("%w: startDate: %v", ErrValidation, err)
	}
	if end, err = parseDate(r.EndDate); err != nil {
		return nil, nil, fmt.Errorf("%w: endDate: %v", ErrValidation, err)
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, fmt.Errorf("%w: endDate is before startDate", ErrValidation)
	}
	return start, end, nil
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// FormatDate renders an optional date in DateLayout
func FormatDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.UTC().Format(DateLayout)
}

// Event is one recorded transition of a challenge
type Event struct {
	ID          string    `json:"id"`
	ChallengeID uint      `json:"challengeId"`
	Action      Action    `json:"action"`
	ActorID     uint      `json:"actorId,omitempty"`
	From        Status    `json:"from"`
	To          Status    `json:"to"`
	At          time.Time `json:"at"`
}
