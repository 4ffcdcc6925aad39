package leaderboard

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type StoreSuite struct {
	suite.Suite
	mini  *miniredis.Miniredis
	store *Store
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})
	s.store = NewStoreWithClient(client)
	s.ctx = context.Background()
}

func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StoreSuite) TestRecordWinAccumulates() {
	s.Require().NoError(s.store.RecordWin(s.ctx, 1, 10, 11))
	s.Require().NoError(s.store.RecordWin(s.ctx, 1, 10, 12))

	entries, err := s.store.Top(s.ctx, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)

	s.Equal(10, entries[0].PlayerID)
	s.Equal(2, entries[0].Wins)
	s.Equal(1, entries[0].Rank)
}

func (s *StoreSuite) TestTopRespectsLimit() {
	s.Require().NoError(s.store.RecordWin(s.ctx, 1, 10, 11, 12, 13))

	entries, err := s.store.Top(s.ctx, 1, 2)
	s.Require().NoError(err)
	s.Len(entries, 2)
}

func (s *StoreSuite) TestCompetitionsAreIsolated() {
	s.Require().NoError(s.store.RecordWin(s.ctx, 1, 10))
	s.Require().NoError(s.store.RecordWin(s.ctx, 2, 20))

	entries, err := s.store.Top(s.ctx, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(10, entries[0].PlayerID)
}

func (s *StoreSuite) TestRebuildReplacesExisting() {
	s.Require().NoError(s.store.RecordWin(s.ctx, 1, 10, 11))

	s.Require().NoError(s.store.Rebuild(s.ctx, 1, map[int]int{20: 5, 21: 3}))

	entries, err := s.store.Top(s.ctx, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(20, entries[0].PlayerID)
	s.Equal(5, entries[0].Wins)
	s.Equal(21, entries[1].PlayerID)
}

func (s *StoreSuite) TestReset() {
	s.Require().NoError(s.store.RecordWin(s.ctx, 1, 10))
	s.Require().NoError(s.store.Reset(s.ctx, 1))

	entries, err := s.store.Top(s.ctx, 1, 10)
	s.Require().NoError(err)
	s.Empty(entries)
}

func TestEntriesFromWins(t *testing.T) {
	wins := map[int]int{1: 3, 2: 5, 3: 3, 4: 1}

	entries := EntriesFromWins(wins, 3)

	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].PlayerID != 2 || entries[0].Wins != 5 || entries[0].Rank != 1 {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	// Равные победы упорядочены по id.
	if entries[1].PlayerID != 1 || entries[2].PlayerID != 3 {
		t.Fatalf("unexpected tie order: %+v", entries)
	}
}
