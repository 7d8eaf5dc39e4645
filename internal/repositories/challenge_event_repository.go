package repositories

import (
	"context"

	"github.com/thelittlethings/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChallengeEventRepository stores the audit trail of challenge transitions
type ChallengeEventRepository interface {
	AppendEvent(ctx context.Context, event *models.ChallengeEvent) error
	GetEventsByChallenge(ctx context.Context, challengeID uint) ([]models.ChallengeEvent, error)
}

// MongoChallengeEventRepository implements ChallengeEventRepository for MongoDB
type MongoChallengeEventRepository struct {
	collection *mongo.Collection
}

func NewMongoChallengeEventRepository(db *mongo.Database) *MongoChallengeEventRepository {
	return &MongoChallengeEventRepository{collection: db.Collection("challenge_events")}
}

// EnsureIndexes creates the lookup index used by GetEventsByChallenge
func (r *MongoChallengeEventRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "challenge_id", Value: 1}, {Key: "at", Value: 1}},
	})
	return err
}

func (r *MongoChallengeEventRepository) AppendEvent(ctx context.Context, event *models.ChallengeEvent) error {
	res, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		event.ID = oid
	}
	return nil
}

// GetEventsByChallenge returns the events of one challenge, oldest first
func (r *MongoChallengeEventRepository) GetEventsByChallenge(ctx context.Context, challengeID uint) ([]models.ChallengeEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"challenge_id": challengeID}, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	events := []models.ChallengeEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
