package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/redmonkez12/finance-tracker-api/internal/database/databasetest"
	"github.com/redmonkez12/finance-tracker-api/internal/user"
)

type RepositoryTestSuite struct {
	suite.Suite
	expenses *Repository
	assets   *Repository
	alice    int64
	bob      int64
	ctx      context.Context
}

func (s *RepositoryTestSuite) SetupTest() {
	db := databasetest.New(s.T())
	s.ctx = context.Background()
	s.expenses = NewRepository(db, KindExpense)
	s.assets = NewRepository(db, KindAsset)

	users := user.NewRepository(db)
	alice, err := users.Create(s.ctx, "alice", "alice@example.com", "hash")
	s.Require().NoError(err)
	bob, err := users.Create(s.ctx, "bob", "bob@example.com", "hash")
	s.Require().NoError(err)
	s.alice, s.bob = alice.ID, bob.ID
}

func (s *RepositoryTestSuite) TestCreateAndGetExactAmount() {
	created, err := s.expenses.Create(s.ctx, s.alice, "coffee", decimal.RequireFromString("3.50"))
	s.Require().NoError(err)
	s.NotZero(created.ID)

	got, err := s.expenses.Get(s.ctx, s.alice, created.ID)
	s.Require().NoError(err)
	s.Equal("coffee", got.Description)
	s.Equal(s.alice, got.UserID)
	s.True(got.Amount.Equal(decimal.RequireFromString("3.5")), got.Amount.String())
	s.Equal("3.50", got.Amount.StringFixed(2))
}

func (s *RepositoryTestSuite) TestAmountsDoNotDrift() {
	for _, v := range []string{"0.10", "0.20", "9999999999.99", "0.07"} {
		created, err := s.assets.Create(s.ctx, s.alice, "asset "+v, decimal.RequireFromString(v))
		s.Require().NoError(err)

		got, err := s.assets.Get(s.ctx, s.alice, created.ID)
		s.Require().NoError(err)
		s.Equal(v, got.Amount.StringFixed(2))
	}
}

func (s *RepositoryTestSuite) TestListIsScopedAndKindsAreSeparate() {
	_, err := s.expenses.Create(s.ctx, s.alice, "rent", decimal.NewFromInt(900))
	s.Require().NoError(err)
	_, err = s.expenses.Create(s.ctx, s.alice, "coffee", decimal.RequireFromString("3.50"))
	s.Require().NoError(err)
	_, err = s.expenses.Create(s.ctx, s.bob, "books", decimal.NewFromInt(40))
	s.Require().NoError(err)
	_, err = s.assets.Create(s.ctx, s.alice, "savings", decimal.NewFromInt(1000))
	s.Require().NoError(err)

	aliceExpenses, err := s.expenses.List(s.ctx, s.alice)
	s.Require().NoError(err)
	s.Require().Len(aliceExpenses, 2)
	s.Equal("rent", aliceExpenses[0].Description)
	s.Equal("coffee", aliceExpenses[1].Description)

	bobExpenses, err := s.expenses.List(s.ctx, s.bob)
	s.Require().NoError(err)
	s.Len(bobExpenses, 1)

	aliceAssets, err := s.assets.List(s.ctx, s.alice)
	s.Require().NoError(err)
	s.Len(aliceAssets, 1)

	bobAssets, err := s.assets.List(s.ctx, s.bob)
	s.Require().NoError(err)
	s.Empty(bobAssets)
}

func (s *RepositoryTestSuite) TestOwnershipEnforced() {
	entry, err := s.expenses.Create(s.ctx, s.bob, "books", decimal.NewFromInt(40))
	s.Require().NoError(err)

	_, err = s.expenses.Get(s.ctx, s.alice, entry.ID)
	s.ErrorIs(err, ErrForbidden)

	_, err = s.expenses.Update(s.ctx, s.alice, entry.ID, "stolen", decimal.Zero)
	s.ErrorIs(err, ErrForbidden)

	s.ErrorIs(s.expenses.Delete(s.ctx, s.alice, entry.ID), ErrForbidden)

	unchanged, err := s.expenses.Get(s.ctx, s.bob, entry.ID)
	s.Require().NoError(err)
	s.Equal("books", unchanged.Description)
}

func (s *RepositoryTestSuite) TestUnknownID() {
	_, err := s.expenses.Get(s.ctx, s.alice, 999)
	s.ErrorIs(err, ErrNotFound)

	_, err = s.expenses.Update(s.ctx, s.alice, 999, "x", decimal.Zero)
	s.ErrorIs(err, ErrNotFound)

	s.ErrorIs(s.expenses.Delete(s.ctx, s.alice, 999), ErrNotFound)
}

func (s *RepositoryTestSuite) TestUpdateAndDelete() {
	entry, err := s.assets.Create(s.ctx, s.alice, "car", decimal.NewFromInt(5000))
	s.Require().NoError(err)

	updated, err := s.assets.Update(s.ctx, s.alice, entry.ID, "car (used)", decimal.RequireFromString("4200.25"))
	s.Require().NoError(err)
	s.Equal("car (used)", updated.Description)
	s.Equal("4200.25", updated.Amount.StringFixed(2))
	s.Equal(s.alice, updated.UserID)

	s.Require().NoError(s.assets.Delete(s.ctx, s.alice, entry.ID))

	_, err = s.assets.Get(s.ctx, s.alice, entry.ID)
	s.ErrorIs(err, ErrNotFound)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
