package memory_test

import (
	"testing"

	"github.com/duynhne/mflix-service/internal/core/domain"
	"github.com/duynhne/mflix-service/internal/core/repository/memory"
	"github.com/duynhne/mflix-service/internal/core/repository/repotest"
)

var (
	_ domain.CommentRepository = (*memory.CommentRepository)(nil)
	_ domain.UserRepository    = (*memory.UserRepository)(nil)
	_ domain.SessionRepository = (*memory.SessionRepository)(nil)
	_ domain.Transactor        = (*memory.Store)(nil)
)

func TestMemoryCommentRepository_Contract(t *testing.T) {
	repotest.RunCommentRepositoryContract(t, func(t *testing.T) domain.CommentRepository {
		return memory.NewStore().Comments()
	})
}

func TestMemoryUserRepository_Contract(t *testing.T) {
	repotest.RunUserRepositoryContract(t, func(t *testing.T) (domain.UserRepository, domain.SessionRepository) {
		store := memory.NewStore()
		return store.Users(), store.Sessions()
	})
}
