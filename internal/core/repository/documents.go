package repository

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/duynhne/mflix-service/internal/core/domain"
)

// Collection names. Field names below are shared with the mflix sample dataset.
const (
	CommentsCollection = "comments"
	UsersCollection    = "users"
	SessionsCollection = "sessions"
)

type commentDocument struct {
	ID      bson.ObjectID `bson:"_id"`
	Name    string        `bson:"name"`
	Email   string        `bson:"email"`
	MovieID bson.ObjectID `bson:"movie_id,omitempty"`
	Text    string        `bson:"text"`
	Date    time.Time     `bson:"date"`
}

func (d commentDocument) toDomain() *domain.Comment {
	c := &domain.Comment{
		ID:    d.ID.Hex(),
		Name:  d.Name,
		Email: d.Email,
		Text:  d.Text,
		Date:  d.Date,
	}
	if !d.MovieID.IsZero() {
		c.MovieID = d.MovieID.Hex()
	}
	return c
}

func newCommentDocument(c domain.Comment) (commentDocument, error) {
	oid, err := bson.ObjectIDFromHex(c.ID)
	if err != nil {
		return commentDocument{}, fmt.Errorf("comment id %q: %w", c.ID, domain.ErrValidation)
	}
	doc := commentDocument{
		ID:    oid,
		Name:  c.Name,
		Email: c.Email,
		Text:  c.Text,
		Date:  c.Date,
	}
	if c.MovieID != "" {
		movieID, err := bson.ObjectIDFromHex(c.MovieID)
		if err != nil {
			return commentDocument{}, fmt.Errorf("movie id %q: %w", c.MovieID, domain.ErrValidation)
		}
		doc.MovieID = movieID
	}
	return doc, nil
}

type criticDocument struct {
	ID    string `bson:"_id"`
	Count int    `bson:"count"`
}

type userDocument struct {
	ID          bson.ObjectID  `bson:"_id,omitempty"`
	Name        string         `bson:"name"`
	Email       string         `bson:"email"`
	Password    string         `bson:"password"`
	Preferences map[string]any `bson:"preferences,omitempty"`
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		Name:        d.Name,
		Email:       d.Email,
		Password:    d.Password,
		Preferences: plainPreferences(d.Preferences),
	}
}

// plainPreferences converts the driver's bson.D, bson.M and bson.A values
// nested in preferences into map[string]any and []any.
func plainPreferences(prefs map[string]any) map[string]any {
	if prefs == nil {
		return nil
	}
	out := make(map[string]any, len(prefs))
	for k, v := range prefs {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v any) any {
	switch v := v.(type) {
	case bson.D:
		m := make(map[string]any, len(v))
		for _, e := range v {
			m[e.Key] = plainValue(e.Value)
		}
		return m
	case bson.M:
		return plainPreferences(v)
	case map[string]any:
		return plainPreferences(v)
	case bson.A:
		return plainSlice(v)
	case []any:
		return plainSlice(v)
	default:
		return v
	}
}

func plainSlice(in []any) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = plainValue(v)
	}
	return out
}

type sessionDocument struct {
	ID     bson.ObjectID `bson:"_id,omitempty"`
	UserID string        `bson:"user_id"`
	Token  string        `bson:"jwt"`
}

// writeError classifies a driver error returned by a write.
// Write exceptions become ErrOperation (plus ErrDuplicateKey for unique
// violations); anything else, such as a network fault, is only wrapped.
func writeError(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w: %w: %w", op, domain.ErrOperation, domain.ErrDuplicateKey, err)
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrOperation, err)
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrOperation, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
