package challenge

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle state of a friend challenge
type Status string

const (
	StatusProposed            Status = "proposed"
	StatusAccepted            Status = "accepted"
	StatusDeclined            Status = "declined"
	StatusActive              Status = "active"
	StatusCompletionRequested Status = "completion_requested"
	StatusCompleted           Status = "completed"
	StatusExpired             Status = "expired"
)

// Statuses lists every known status in lifecycle order
var Statuses = []Status{
	StatusProposed,
	StatusAccepted,
	StatusDeclined,
	StatusActive,
	StatusCompletionRequested,
	StatusCompleted,
	StatusExpired,
}

// UnknownStateError is returned when a status string is not part of the lifecycle
type UnknownStateError struct {
	Value string
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("unknown challenge status %q", e.Value)
}

// ParseStatus converts a raw status string into a Status
func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusProposed, StatusAccepted, StatusDeclined, StatusActive,
		StatusCompletionRequested, StatusCompleted, StatusExpired:
		return s, nil
	default:
		return "", &UnknownStateError{Value: raw}
	}
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// Terminal reports whether no further transition is accepted from s
func (s Status) Terminal() bool {
	switch s {
	case StatusDeclined, StatusCompleted, StatusExpired:
		return true
	}
	return false
}

// InProgress reports whether s is one of the two running states
func (s Status) InProgress() bool {
	return s == StatusAccepted || s == StatusActive
}

func (s Status) String() string {
	return string(s)
}

// UnmarshalJSON rejects statuses outside the lifecycle
func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
