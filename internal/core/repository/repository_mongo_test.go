package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/duynhne/mflix-service/internal/core/domain"
	"github.com/duynhne/mflix-service/internal/core/repository"
	"github.com/duynhne/mflix-service/internal/core/repository/repotest"
)

var (
	_ domain.CommentRepository = (*repository.MongoCommentRepository)(nil)
	_ domain.UserRepository    = (*repository.MongoUserRepository)(nil)
	_ domain.SessionRepository = (*repository.MongoSessionRepository)(nil)
	_ domain.Transactor        = (*repository.MongoTransactor)(nil)
)

// testClient connects to MONGODB_TEST_URI or skips the test.
func testClient(t *testing.T) *mongo.Client {
	t.Helper()
	return connectEnv(t, "MONGODB_TEST_URI")
}

// replicaSetClient connects to MONGODB_TEST_REPLSET_URI, a replica set
// deployment that supports transactions, or skips the test.
func replicaSetClient(t *testing.T) *mongo.Client {
	t.Helper()
	return connectEnv(t, "MONGODB_TEST_REPLSET_URI")
}

func connectEnv(t *testing.T, env string) *mongo.Client {
	t.Helper()

	uri := os.Getenv(env)
	if uri == "" {
		t.Skipf("%s not set, skipping MongoDB integration tests", env)
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client
}

// freshDatabase returns an empty, indexed database dropped at test cleanup.
func freshDatabase(t *testing.T, client *mongo.Client) *mongo.Database {
	t.Helper()

	db := client.Database("mflix_test_" + bson.NewObjectID().Hex())
	t.Cleanup(func() { _ = db.Drop(context.Background()) })
	require.NoError(t, repository.EnsureIndexes(context.Background(), db))
	return db
}

func TestMongoCommentRepository_Contract(t *testing.T) {
	client := testClient(t)
	repotest.RunCommentRepositoryContract(t, func(t *testing.T) domain.CommentRepository {
		return repository.NewCommentRepository(freshDatabase(t, client))
	})
}

func TestMongoUserRepository_Contract(t *testing.T) {
	client := testClient(t)
	repotest.RunUserRepositoryContract(t, func(t *testing.T) (domain.UserRepository, domain.SessionRepository) {
		db := freshDatabase(t, client)
		return repository.NewUserRepository(db), repository.NewSessionRepository(db)
	})
}

func TestMongoSessionRepository_ExactlyOneDocument(t *testing.T) {
	ctx := context.Background()
	db := freshDatabase(t, testClient(t))
	sessions := repository.NewSessionRepository(db)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, sessions.Upsert(ctx, "login@example.com", fmt.Sprintf("jwt-%d", i)))
		}(i)
	}
	wg.Wait()

	n, err := db.Collection(repository.SessionsCollection).
		CountDocuments(ctx, bson.D{{Key: "user_id", Value: "login@example.com"}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestMongoCommentRepository_StoredLayout(t *testing.T) {
	ctx := context.Background()
	db := freshDatabase(t, testClient(t))
	repo := repository.NewCommentRepository(db)

	c := repotest.NewComment("layout@example.com", "fields")
	require.NoError(t, repo.Create(ctx, c))

	var raw bson.M
	oid, err := bson.ObjectIDFromHex(c.ID)
	require.NoError(t, err)
	require.NoError(t, db.Collection(repository.CommentsCollection).
		FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&raw))

	for _, field := range []string{"_id", "name", "email", "movie_id", "text", "date"} {
		assert.Contains(t, raw, field)
	}
	assert.IsType(t, bson.ObjectID{}, raw["movie_id"])
}

func TestMongoTransactor_Disabled(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)
	db := freshDatabase(t, client)
	users := repository.NewUserRepository(db)
	tx := repository.NewTransactor(client, false)

	require.NoError(t, users.Create(ctx, domain.User{Email: "tx@example.com"}))

	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := users.Delete(ctx, "tx@example.com"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// Without transactions the first step is not rolled back.
	got, err := users.GetByEmail(ctx, "tx@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMongoTransactor_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	client := replicaSetClient(t)
	db := freshDatabase(t, client)
	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	tx := repository.NewTransactor(client, true)

	require.NoError(t, users.Create(ctx, domain.User{Email: "tx@example.com"}))
	require.NoError(t, sessions.Upsert(ctx, "tx@example.com", "jwt"))

	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := users.Delete(ctx, "tx@example.com"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := users.GetByEmail(ctx, "tx@example.com")
	require.NoError(t, err)
	assert.NotNil(t, got, "user delete must roll back")
}

func TestMongoTransactor_CommitsCascade(t *testing.T) {
	ctx := context.Background()
	client := replicaSetClient(t)
	db := freshDatabase(t, client)
	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	tx := repository.NewTransactor(client, true)

	require.NoError(t, users.Create(ctx, domain.User{Email: "tx@example.com"}))
	require.NoError(t, sessions.Upsert(ctx, "tx@example.com", "jwt"))

	require.NoError(t, tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := users.Delete(ctx, "tx@example.com"); err != nil {
			return err
		}
		return sessions.DeleteByUserID(ctx, "tx@example.com")
	}))

	user, err := users.GetByEmail(ctx, "tx@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
	session, err := sessions.GetByUserID(ctx, "tx@example.com")
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestMongoSessionRepository_DeleteOrphanedKeepsRefreshedSession(t *testing.T) {
	ctx := context.Background()
	db := freshDatabase(t, testClient(t))
	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)

	require.NoError(t, sessions.Upsert(ctx, "back@example.com", "stale-jwt"))
	require.NoError(t, sessions.Upsert(ctx, "ghost@example.com", "ghost-jwt"))

	// The user registers again and logs in after the scan saw the orphan.
	removed, err := repository.DeleteOrphanedWithPause(ctx, sessions, func() {
		require.NoError(t, users.Create(ctx, domain.User{Email: "back@example.com"}))
		require.NoError(t, sessions.Upsert(ctx, "back@example.com", "fresh-jwt"))
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	live, err := sessions.GetByUserID(ctx, "back@example.com")
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.Equal(t, "fresh-jwt", live.Token)

	ghost, err := sessions.GetByUserID(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, ghost)
}
