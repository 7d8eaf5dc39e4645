package challenge

import (
	"fmt"
	"time"
)

// Action is a lifecycle transition request
type Action string

const (
	ActionAccept          Action = "accept"
	ActionDecline         Action = "decline"
	ActionRequestComplete Action = "request_complete"
	ActionConfirmComplete Action = "confirm_complete"
	ActionRejectComplete  Action = "reject_complete"
	ActionComplete        Action = "complete"
	ActionExpire          Action = "expire"
)

// UserActions are the actions a party can invoke, in display order.
// ActionExpire is reserved for the system.
var UserActions = []Action{
	ActionAccept,
	ActionDecline,
	ActionRequestComplete,
	ActionConfirmComplete,
	ActionRejectComplete,
	ActionComplete,
}

// Actor identifies who performs a transition. The zero Actor is the system.
type Actor struct {
	ID       uint
	Username string
}

// System is the actor used for time-based transitions
var System = Actor{}

// IsSystem reports whether a is the system actor
func (a Actor) IsSystem() bool {
	return a.ID == 0
}

// Transition describes one requested state change
type Transition struct {
	Action Action
	Actor  Actor
	// WinnerID is required for ActionComplete and ignored otherwise.
	WinnerID uint
	At       time.Time
}

// Check reports whether t may be applied to c without modifying it. For
// ActionComplete a missing WinnerID is not an error here; Apply requires it.
func Check(c Challenge, t Transition) error {
	return check(&c, t)
}

// Apply validates t against c and, on success, mutates c into the target
// state. On failure c is left untouched.
func Apply(c *Challenge, t Transition) error {
	if t.Action == ActionComplete && t.WinnerID == 0 {
		return fmt.Errorf("%w: winner is required", ErrValidation)
	}
	if err := check(c, t); err != nil {
		return err
	}

	at := t.At
	if at.IsZero() {
		at = time.Now()
	}

	switch t.Action {
	case ActionAccept:
		c.Status = StatusAccepted
	case ActionDecline:
		c.Status = StatusDeclined
	case ActionRequestComplete:
		id := t.Actor.ID
		c.ResumeStatus = c.Status
		c.Status = StatusCompletionRequested
		c.CompletionRequestedByID = &id
		c.CompletionRequestedByUsername = c.UsernameOf(id)
		c.CompletionRequestedAt = &at
	case ActionConfirmComplete:
		c.Status = StatusCompleted
		c.ResumeStatus = ""
	case ActionRejectComplete:
		c.Status = c.resumeTarget()
		c.ResumeStatus = ""
		c.clearCompletionRequest()
	case ActionComplete:
		winner := t.WinnerID
		name := c.UsernameOf(winner)
		c.Status = StatusCompleted
		c.WinnerID = &winner
		c.WinnerUsername = &name
	case ActionExpire:
		c.Status = StatusExpired
	}
	c.UpdatedAt = at
	return nil
}

func check(c *Challenge, t Transition) error {
	if _, err := ParseStatus(string(c.Status)); err != nil {
		return err
	}
	if c.Status.Terminal() {
		return fmt.Errorf("%w: challenge is already %s", ErrConflict, c.Status)
	}

	if t.Action == ActionExpire {
		if !t.Actor.IsSystem() {
			return fmt.Errorf("%w: only the system can expire a challenge", ErrForbidden)
		}
		return nil
	}

	if !c.IsParty(t.Actor.ID) {
		return fmt.Errorf("%w: not a party to this challenge", ErrForbidden)
	}

	switch t.Action {
	case ActionAccept, ActionDecline:
		if t.Actor.ID != c.OpponentID {
			return fmt.Errorf("%w: only the opponent can %s", ErrForbidden, t.Action)
		}
		if c.Status != StatusProposed {
			return wrongState(c.Status, t.Action)
		}
	case ActionRequestComplete:
		if !c.Status.InProgress() {
			return wrongState(c.Status, t.Action)
		}
	case ActionConfirmComplete, ActionRejectComplete:
		if c.Status != StatusCompletionRequested {
			return wrongState(c.Status, t.Action)
		}
		if c.CompletionRequestedByID != nil && *c.CompletionRequestedByID == t.Actor.ID {
			return fmt.Errorf("%w: the requester cannot answer their own completion request", ErrForbidden)
		}
	case ActionComplete:
		if !c.Status.InProgress() {
			return wrongState(c.Status, t.Action)
		}
		if t.WinnerID != 0 && !c.IsParty(t.WinnerID) {
			return fmt.Errorf("%w: winner must be a participant", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown action %q", ErrValidation, t.Action)
	}
	return nil
}

func (c *Challenge) resumeTarget() Status {
	if c.ResumeStatus.InProgress() {
		return c.ResumeStatus
	}
	return StatusAccepted
}

func wrongState(s Status, a Action) error {
	return fmt.Errorf("%w: cannot %s a %s challenge", ErrConflict, a, s)
}
