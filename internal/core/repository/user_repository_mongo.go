package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/duynhne/mflix-service/internal/core/domain"
)

// MongoUserRepository implements domain.UserRepository using the users collection.
type MongoUserRepository struct {
	users *mongo.Collection
}

// NewUserRepository creates a new MongoUserRepository.
func NewUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{users: db.Collection(UsersCollection)}
}

// Create inserts a new user. Uniqueness is enforced by the email_unique index.
func (r *MongoUserRepository) Create(ctx context.Context, u domain.User) error {
	doc := userDocument{
		Name:        u.Name,
		Email:       u.Email,
		Password:    u.Password,
		Preferences: u.Preferences,
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		return writeError(fmt.Sprintf("insert user %q", u.Email), err)
	}
	return nil
}

// GetByEmail returns the user matching the given email.
// Returns (nil, nil) when no user is found.
func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var doc userDocument
	err := r.users.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user %q: %w", email, err)
	}
	return doc.toDomain(), nil
}

// Delete removes the user with the given email.
func (r *MongoUserRepository) Delete(ctx context.Context, email string) error {
	if _, err := r.users.DeleteOne(ctx, bson.D{{Key: "email", Value: email}}); err != nil {
		return writeError(fmt.Sprintf("delete user %q", email), err)
	}
	return nil
}

// ReplacePreferences overwrites the whole preferences document of the user.
func (r *MongoUserRepository) ReplacePreferences(ctx context.Context, email string, prefs map[string]any) error {
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "preferences", Value: prefs}}}}
	if _, err := r.users.UpdateOne(ctx, bson.D{{Key: "email", Value: email}}, update); err != nil {
		return writeError(fmt.Sprintf("update preferences of %q", email), err)
	}
	return nil
}
