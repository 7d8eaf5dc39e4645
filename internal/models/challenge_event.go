package models

import (
	"time"

	"github.com/thelittlethings/backend/pkg/challenge"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChallengeEvent is an audit record of one transition, stored in MongoDB
type ChallengeEvent struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	ChallengeID uint               `bson:"challenge_id"`
	Action      challenge.Action   `bson:"action"`
	ActorID     uint               `bson:"actor_id"` // 0 for the system
	From        challenge.Status   `bson:"from"`
	To          challenge.Status   `bson:"to"`
	At          time.Time          `bson:"at"`
}

func (e *ChallengeEvent) ToEvent() challenge.Event {
	return challenge.Event{
		ID:          e.ID.Hex(),
		ChallengeID: e.ChallengeID,
		Action:      e.Action,
		ActorID:     e.ActorID,
		From:        e.From,
		To:          e.To,
		At:          e.At,
	}
}
