package user

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/redmonkez12/finance-tracker-api/internal/database/databasetest"
)

type RepositoryTestSuite struct {
	suite.Suite
	repo *Repository
	ctx  context.Context
}

func (s *RepositoryTestSuite) SetupTest() {
	s.repo = NewRepository(databasetest.New(s.T()))
	s.ctx = context.Background()
}

func (s *RepositoryTestSuite) TestCreateAndGet() {
	created, err := s.repo.Create(s.ctx, "alice", "alice@example.com", "hash")
	s.Require().NoError(err)
	s.NotZero(created.ID)
	s.Equal("alice", created.Username)

	byName, err := s.repo.GetByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(created.ID, byName.ID)
	s.Equal("hash", byName.PasswordHash)

	byID, err := s.repo.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("alice@example.com", byID.Email)
}

func (s *RepositoryTestSuite) TestGetMissing() {
	_, err := s.repo.GetByUsername(s.ctx, "nobody")
	s.ErrorIs(err, ErrNotFound)

	_, err = s.repo.GetByID(s.ctx, 42)
	s.ErrorIs(err, ErrNotFound)
}

func (s *RepositoryTestSuite) TestDuplicateUsernameOrEmail() {
	_, err := s.repo.Create(s.ctx, "alice", "alice@example.com", "hash")
	s.Require().NoError(err)

	_, err = s.repo.Create(s.ctx, "alice", "new@example.com", "hash")
	s.ErrorIs(err, ErrDuplicate)

	_, err = s.repo.Create(s.ctx, "bob", "alice@example.com", "hash")
	s.ErrorIs(err, ErrDuplicate)

	count, err := s.repo.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *RepositoryTestSuite) TestUpdatePassword() {
	created, err := s.repo.Create(s.ctx, "alice", "alice@example.com", "old")
	s.Require().NoError(err)

	s.Require().NoError(s.repo.UpdatePassword(s.ctx, created.ID, "new"))

	got, err := s.repo.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("new", got.PasswordHash)

	s.ErrorIs(s.repo.UpdatePassword(s.ctx, 999, "new"), ErrNotFound)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func TestConcurrentCreateSameUsername(t *testing.T) {
	repo := NewRepository(databasetest.New(t))
	ctx := context.Background()

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Create(ctx, "racer", fmt.Sprintf("racer%d@example.com", i), "hash")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case assert.ErrorIs(t, err, ErrDuplicate):
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
