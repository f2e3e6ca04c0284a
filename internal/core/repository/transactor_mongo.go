package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// MongoTransactor implements domain.Transactor with multi-document transactions.
// Transactions require a replica set; when disabled fn runs without one.
type MongoTransactor struct {
	client  *mongo.Client
	enabled bool
}

// NewTransactor creates a MongoTransactor.
func NewTransactor(client *mongo.Client, enabled bool) *MongoTransactor {
	return &MongoTransactor{client: client, enabled: enabled}
}

// Transactional reports whether transactions are enabled.
func (t *MongoTransactor) Transactional() bool {
	return t.enabled
}

// WithinTransaction runs fn inside a transaction, retrying on transient
// transaction errors as the driver's convenient API does.
func (t *MongoTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.enabled {
		return fn(ctx)
	}

	sess, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
		return nil, fn(txCtx)
	})
	return err
}
