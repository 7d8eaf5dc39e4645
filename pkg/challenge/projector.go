package challenge

// Role is the viewer's part in a challenge
type Role string

const (
	RoleNone       Role = ""
	RoleChallenger Role = "challenger"
	RoleOpponent   Role = "opponent"
)

// CurrentUser is the signed-in user a challenge is projected for
type CurrentUser struct {
	ID       uint
	Username string
}

// Projection is the per-user view of a challenge
type Projection struct {
	Role               Role
	PartnerUsername    string
	RequestedByMe      bool
	RequestedByPartner bool
	// Waiting is set when the next move belongs to the partner.
	Waiting          bool
	Terminal         bool
	AvailableActions []Action
}

// Can reports whether a is offered by the projection
func (p Projection) Can(a Action) bool {
	for _, x := range p.AvailableActions {
		if x == a {
			return true
		}
	}
	return false
}

// Project derives role flags and available actions for me. It performs no I/O.
func Project(c Challenge, me CurrentUser) (Projection, error) {
	if _, err := ParseStatus(string(c.Status)); err != nil {
		return Projection{}, err
	}

	actor := Actor{ID: me.ID, Username: me.Username}
	if actor.ID == 0 && me.Username != "" {
		switch me.Username {
		case c.ChallengerUsername:
			actor.ID = c.ChallengerID
		case c.OpponentUsername:
			actor.ID = c.OpponentID
		}
	}

	p := Projection{Terminal: c.Status.Terminal()}
	switch {
	case actor.ID != 0 && actor.ID == c.ChallengerID:
		p.Role = RoleChallenger
	case actor.ID != 0 && actor.ID == c.OpponentID:
		p.Role = RoleOpponent
	}

	if p.Role == RoleOpponent {
		p.PartnerUsername = c.ChallengerUsername
	} else {
		p.PartnerUsername = c.OpponentUsername
	}

	if c.Status == StatusCompletionRequested && c.CompletionRequestedByUsername != "" {
		p.RequestedByMe = c.CompletionRequestedByUsername == me.Username
		p.RequestedByPartner = !p.RequestedByMe
	}

	if p.Role != RoleNone {
		for _, a := range UserActions {
			if Check(c, Transition{Action: a, Actor: actor}) == nil {
				p.AvailableActions = append(p.AvailableActions, a)
			}
		}
	}

	p.Waiting = p.RequestedByMe || (p.Role == RoleChallenger && c.Status == StatusProposed)
	return p, nil
}
