package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readconcern"

	"github.com/duynhne/mflix-service/internal/core/domain"
)

// MongoCommentRepository implements domain.CommentRepository using the comments collection.
type MongoCommentRepository struct {
	comments *mongo.Collection
	// critics reads comments with majority read concern so leaderboard
	// counts survive a failover.
	critics *mongo.Collection
}

// NewCommentRepository creates a new MongoCommentRepository.
func NewCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{
		comments: db.Collection(CommentsCollection),
		critics: db.Collection(CommentsCollection,
			options.Collection().SetReadConcern(readconcern.Majority())),
	}
}

// GetByID returns the comment with the given id.
// Returns (nil, nil) when no comment matches, including malformed ids.
func (r *MongoCommentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc commentDocument
	err = r.comments.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find comment %s: %w", id, err)
	}

	return doc.toDomain(), nil
}

// Create inserts the comment under its own ID.
func (r *MongoCommentRepository) Create(ctx context.Context, c domain.Comment) error {
	doc, err := newCommentDocument(c)
	if err != nil {
		return err
	}

	if _, err := r.comments.InsertOne(ctx, doc); err != nil {
		return writeError(fmt.Sprintf("insert comment %s", c.ID), err)
	}
	return nil
}

// UpdateText sets text and date on the comment matching both id and owner email.
// The owner email in the filter makes the write re-check ownership.
func (r *MongoCommentRepository) UpdateText(ctx context.Context, id, email, text string, at time.Time) (bool, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	filter := bson.D{{Key: "_id", Value: oid}, {Key: "email", Value: email}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "text", Value: text},
		{Key: "date", Value: at},
	}}}

	res, err := r.comments.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, writeError(fmt.Sprintf("update comment %s", id), err)
	}
	return res.MatchedCount > 0, nil
}

// Delete removes the comment matching both id and owner email in one call.
func (r *MongoCommentRepository) Delete(ctx context.Context, id, email string) (bool, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	filter := bson.D{{Key: "_id", Value: oid}, {Key: "email", Value: email}}
	res, err := r.comments.DeleteOne(ctx, filter)
	if err != nil {
		return false, writeError(fmt.Sprintf("delete comment %s", id), err)
	}
	return res.DeletedCount > 0, nil
}

// TopCommenters groups comments by owner email and returns at most limit
// entries ordered by count descending, then email ascending.
// A non-positive limit means domain.DefaultCriticLimit.
func (r *MongoCommentRepository) TopCommenters(ctx context.Context, limit int) ([]domain.Critic, error) {
	if limit <= 0 {
		limit = domain.DefaultCriticLimit
	}
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$email"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "count", Value: -1},
			{Key: "_id", Value: 1},
		}}},
		{{Key: "$limit", Value: int64(limit)}},
	}

	cursor, err := r.critics.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate critics: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []criticDocument
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode critics: %w", err)
	}

	critics := make([]domain.Critic, 0, len(rows))
	for _, row := range rows {
		critics = append(critics, domain.Critic{ID: row.ID, Count: row.Count})
	}
	return critics, nil
}
