// Package leaderboard keeps per-competition win counters in a Redis
// sorted set. The set is a projection of the games table: it can be
// rebuilt from scratch at any moment, so Redis outages degrade reads
// but never corrupt the source of truth.
package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Entry is one row of a competition leaderboard, ranked by wins.
type Entry struct {
	Rank     int `json:"rank"`
	PlayerID int `json:"player_id"`
	Wins     int `json:"wins"`
}

type Store struct {
	client *redis.Client
}

func NewStore(cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewStoreWithClient wraps an existing client, mainly for tests.
func NewStoreWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func competitionKey(competitionID int) string {
	return fmt.Sprintf("competition:%d:wins", competitionID)
}

// RecordWin adds one win to every member of the winning side.
func (s *Store) RecordWin(ctx context.Context, competitionID int, playerIDs ...int) error {
	if len(playerIDs) == 0 {
		return nil
	}
	key := competitionKey(competitionID)

	pipe := s.client.Pipeline()
	for _, id := range playerIDs {
		pipe.ZIncrBy(ctx, key, 1, strconv.Itoa(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("recording win: %w", err)
	}
	return nil
}

// Top returns the n best players of a competition, most wins first.
func (s *Store) Top(ctx context.Context, competitionID, n int) ([]Entry, error) {
	key := competitionKey(competitionID)
	results, err := s.client.ZRevRangeWithScores(ctx, key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for i, result := range results {
		member, ok := result.Member.(string)
		if !ok {
			continue
		}
		playerID, err := strconv.Atoi(member)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Rank:     i + 1,
			PlayerID: playerID,
			Wins:     int(result.Score),
		})
	}
	return entries, nil
}

// Rebuild replaces the whole sorted set with the given win counts.
func (s *Store) Rebuild(ctx context.Context, competitionID int, wins map[int]int) error {
	key := competitionKey(competitionID)

	pipe := s.client.Pipeline()
	pipe.Del(ctx, key)
	for playerID, count := range wins {
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(count),
			Member: strconv.Itoa(playerID),
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rebuilding leaderboard: %w", err)
	}
	return nil
}

// Reset drops a competition's leaderboard entirely.
func (s *Store) Reset(ctx context.Context, competitionID int) error {
	if err := s.client.Del(ctx, competitionKey(competitionID)).Err(); err != nil {
		return fmt.Errorf("resetting leaderboard: %w", err)
	}
	return nil
}

// EntriesFromWins ranks a win-count map without touching Redis. Used
// as the SQL fallback path when the sorted set is empty.
func EntriesFromWins(wins map[int]int, limit int) []Entry {
	entries := make([]Entry, 0, len(wins))
	for playerID, count := range wins {
		entries = append(entries, Entry{PlayerID: playerID, Wins: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
