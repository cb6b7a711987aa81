package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"emittr/connectfour/internal/game"
	"emittr/connectfour/internal/storage"
)

// DefaultKey is where the whole leaderboard document lives.
const DefaultKey = "connectFourLeaderboard"

type Entry struct {
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

func (e Entry) Games() int {
	return e.Wins + e.Losses
}

func (e Entry) WinRate() float64 {
	if e.Games() == 0 {
		return 0
	}
	return float64(e.Wins) / float64(e.Games())
}

type SortBy string

const (
	SortWins    SortBy = "wins"
	SortLosses  SortBy = "losses"
	SortWinRate SortBy = "winrate"
)

// ParseSort falls back to SortWins for anything unrecognised.
func ParseSort(s string) SortBy {
	switch SortBy(strings.ToLower(strings.TrimSpace(s))) {
	case SortLosses:
		return SortLosses
	case SortWinRate:
		return SortWinRate
	}
	return SortWins
}

// Sort orders entries descending by the given key. Ties keep stored order.
func Sort(entries []Entry, by SortBy) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch by {
		case SortLosses:
			return a.Losses > b.Losses
		case SortWinRate:
			return a.WinRate() > b.WinRate()
		default:
			return a.Wins > b.Wins
		}
	})
}

// Service keeps per-name counters in a single JSON document. Every update is
// a full read-modify-write of that document.
type Service struct {
	mu  sync.Mutex
	kv  storage.KV
	key string
}

func New(kv storage.KV, key string) *Service {
	if key == "" {
		key = DefaultKey
	}
	return &Service{kv: kv, key: key}
}

func (s *Service) load(ctx context.Context) ([]Entry, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	entries := []Entry{}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode leaderboard: %w", err)
	}
	return entries, nil
}

func (s *Service) save(ctx context.Context, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("save leaderboard: %w", err)
	}
	return nil
}

func countable(name string) bool {
	return name != "" && name != game.BotName && name != game.DrawName
}

// RecordResult credits a win to winner and a loss to loser. The bot and
// empty names are never recorded.
func (s *Service) RecordResult(ctx context.Context, winner, loser string) error {
	if !countable(winner) && !countable(loser) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return err
	}
	entries = bump(entries, winner, func(e *Entry) { e.Wins++ })
	entries = bump(entries, loser, func(e *Entry) { e.Losses++ })
	return s.save(ctx, entries)
}

func bump(entries []Entry, name string, fn func(*Entry)) []Entry {
	if !countable(name) {
		return entries
	}
	for i := range entries {
		if entries[i].Name == name {
			fn(&entries[i])
			return entries
		}
	}
	entries = append(entries, Entry{Name: name})
	fn(&entries[len(entries)-1])
	return entries
}

// RecordMatch records a finished match. Draws and unfinished matches are ignored.
func (s *Service) RecordMatch(ctx context.Context, m game.Match) error {
	if !m.Finished() || m.Outcome.Status != game.StatusWin {
		return nil
	}
	return s.RecordResult(ctx, m.NameOf(m.Outcome.Winner), m.NameOf(game.Opponent(m.Outcome.Winner)))
}

func (s *Service) List(ctx context.Context, by SortBy) ([]Entry, error) {
	s.mu.Lock()
	entries, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	Sort(entries, by)
	return entries, nil
}

func (s *Service) Get(ctx context.Context, name string) (Entry, bool, error) {
	entries, err := s.List(ctx, SortWins)
	if err != nil {
		return Entry{}, false, err
	}
	for _, e := range entries {
		if e.Name == name {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Del(ctx, s.key)
}
