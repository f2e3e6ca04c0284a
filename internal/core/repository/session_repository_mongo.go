package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/duynhne/mflix-service/internal/core/domain"
)

// maxUpsertAttempts bounds retries when concurrent upserts for the same
// user race on the user_id_unique index.
const maxUpsertAttempts = 3

// MongoSessionRepository implements domain.SessionRepository using the sessions collection.
type MongoSessionRepository struct {
	sessions *mongo.Collection
}

// NewSessionRepository creates a new MongoSessionRepository.
func NewSessionRepository(db *mongo.Database) *MongoSessionRepository {
	return &MongoSessionRepository{sessions: db.Collection(SessionsCollection)}
}

// Upsert sets the token of the user's session, creating it if absent.
// Two racing upserts may both miss and try to insert; the loser hits the
// unique index and is retried, which then matches the winner's document.
func (r *MongoSessionRepository) Upsert(ctx context.Context, userID, token string) error {
	filter := bson.D{{Key: "user_id", Value: userID}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "jwt", Value: token}}}}
	opts := options.UpdateOne().SetUpsert(true)

	var err error
	for attempt := 1; attempt <= maxUpsertAttempts; attempt++ {
		_, err = r.sessions.UpdateOne(ctx, filter, update, opts)
		if err == nil || !mongo.IsDuplicateKeyError(err) {
			break
		}
	}
	if err != nil {
		return writeError(fmt.Sprintf("upsert session of %q", userID), err)
	}
	return nil
}

// GetByUserID returns the session of the given user.
// Returns (nil, nil) when the user has no session.
func (r *MongoSessionRepository) GetByUserID(ctx context.Context, userID string) (*domain.Session, error) {
	var doc sessionDocument
	err := r.sessions.FindOne(ctx, bson.D{{Key: "user_id", Value: userID}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find session of %q: %w", userID, err)
	}
	return &domain.Session{UserID: doc.UserID, Token: doc.Token}, nil
}

// DeleteByUserID removes the user's sessions.
func (r *MongoSessionRepository) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := r.sessions.DeleteMany(ctx, bson.D{{Key: "user_id", Value: userID}}); err != nil {
		return writeError(fmt.Sprintf("delete sessions of %q", userID), err)
	}
	return nil
}

// DeleteOrphaned removes sessions whose user_id has no matching users.email.
// A session refreshed between the scan and the delete no longer carries the
// scanned token and is kept.
func (r *MongoSessionRepository) DeleteOrphaned(ctx context.Context) (int64, error) {
	orphans, err := r.findOrphaned(ctx)
	if err != nil {
		return 0, err
	}
	return r.deleteScanned(ctx, orphans)
}

func (r *MongoSessionRepository) findOrphaned(ctx context.Context) ([]sessionDocument, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: UsersCollection},
			{Key: "localField", Value: "user_id"},
			{Key: "foreignField", Value: "email"},
			{Key: "as", Value: "owner"},
		}}},
		{{Key: "$match", Value: bson.D{{Key: "owner", Value: bson.D{{Key: "$size", Value: 0}}}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 1},
			{Key: "user_id", Value: 1},
			{Key: "jwt", Value: 1},
		}}},
	}

	cursor, err := r.sessions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("find orphaned sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var orphans []sessionDocument
	if err := cursor.All(ctx, &orphans); err != nil {
		return nil, fmt.Errorf("decode orphaned sessions: %w", err)
	}
	return orphans, nil
}

// deleteScanned deletes each scanned session only if its token is unchanged.
func (r *MongoSessionRepository) deleteScanned(ctx context.Context, orphans []sessionDocument) (int64, error) {
	if len(orphans) == 0 {
		return 0, nil
	}

	match := make(bson.A, 0, len(orphans))
	for _, o := range orphans {
		match = append(match, bson.D{
			{Key: "_id", Value: o.ID},
			{Key: "jwt", Value: o.Token},
		})
	}

	res, err := r.sessions.DeleteMany(ctx, bson.D{{Key: "$or", Value: match}})
	if err != nil {
		return 0, writeError("delete orphaned sessions", err)
	}
	return res.DeletedCount, nil
}
