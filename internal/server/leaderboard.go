package server

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const leaderboardKey = "scat31:wins"

// LeaderboardEntry is one row of the all-time winners table.
type LeaderboardEntry struct {
	Name string `json:"name"`
	Wins int64  `json:"wins"`
}

// Leaderboard tracks game wins per display name in a redis sorted set. A nil
// Leaderboard is a no-op, so rooms work identically with redis disabled.
type Leaderboard struct {
	rdb *redis.Client
}

// NewLeaderboard creates a leaderboard backed by rdb.
func NewLeaderboard(rdb *redis.Client) *Leaderboard {
	return &Leaderboard{rdb: rdb}
}

// RecordWin increments the winner's tally.
func (l *Leaderboard) RecordWin(ctx context.Context, name string) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.ZIncrBy(ctx, leaderboardKey, 1, name).Err()
}

// Top returns the n players with the most wins, best first.
func (l *Leaderboard) Top(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	if l == nil || l.rdb == nil {
		return nil, nil
	}
	zs, err := l.rdb.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, 0, len(zs))
	for _, z := range zs {
		name, _ := z.Member.(string)
		entries = append(entries, LeaderboardEntry{Name: name, Wins: int64(z.Score)})
	}
	return entries, nil
}
