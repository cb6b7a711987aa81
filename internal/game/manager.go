package game

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager is the in-memory registry of matches. Every method returns a
// snapshot; the registry's own Match values never leave the lock.
type Manager struct {
	mu       sync.RWMutex
	games    map[string]*Match
	rng      RandSource
	now      func() time.Time
	onFinish func(Match)
}

func NewManager(rng RandSource, onFinish func(Match)) *Manager {
	if rng == nil {
		rng = DefaultRand
	}
	return &Manager{
		games:    make(map[string]*Match),
		rng:      rng,
		now:      time.Now,
		onFinish: onFinish,
	}
}

func (m *Manager) Create(mode Mode, player1, player2 string) (Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	match, err := newMatch(uuid.NewString(), mode, player1, player2, m.now())
	if err != nil {
		return Match{}, err
	}
	m.games[match.ID] = match
	return match.snapshot(), nil
}

func (m *Manager) Get(id string) (Match, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return Match{}, false
	}
	return g.snapshot(), true
}

// Play applies a human move for whichever seat is on turn. In bot mode the
// human may only move while the bot is not on turn.
func (m *Manager) Play(id string, col int) (Match, Result, error) {
	m.mu.Lock()
	g, ok := m.games[id]
	if !ok {
		m.mu.Unlock()
		return Match{}, Result{}, ErrGameNotFound
	}
	if g.IsBotTurn() {
		snap := g.snapshot()
		m.mu.Unlock()
		return snap, Result{}, ErrInvalidTurn
	}
	res, err := g.apply(col, g.Turn, m.now(), m.rng)
	snap := g.snapshot()
	m.mu.Unlock()
	if err != nil {
		return snap, Result{}, err
	}
	m.finished(snap)
	return snap, res, nil
}

// PlayBot lets the bot take its turn in a bot-mode match.
func (m *Manager) PlayBot(id string) (Match, Result, error) {
	m.mu.Lock()
	g, ok := m.games[id]
	if !ok {
		m.mu.Unlock()
		return Match{}, Result{}, ErrGameNotFound
	}
	if g.Phase == PhaseFinished {
		snap := g.snapshot()
		m.mu.Unlock()
		return snap, Result{}, ErrGameFinished
	}
	if !g.IsBotTurn() {
		snap := g.snapshot()
		m.mu.Unlock()
		return snap, Result{}, ErrInvalidTurn
	}
	col, err := NewBot(Player2, m.rng).ChooseMove(g.Board)
	if err != nil {
		snap := g.snapshot()
		m.mu.Unlock()
		return snap, Result{}, err
	}
	res, err := g.apply(col, Player2, m.now(), m.rng)
	snap := g.snapshot()
	m.mu.Unlock()
	if err != nil {
		return snap, Result{}, err
	}
	m.finished(snap)
	return snap, res, nil
}

func (m *Manager) finished(snap Match) {
	if snap.Finished() && m.onFinish != nil {
		m.onFinish(snap)
	}
}

// Restart clears the board and keeps the seats.
func (m *Manager) Restart(id string) (Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return Match{}, ErrGameNotFound
	}
	g.reset(m.now())
	return g.snapshot(), nil
}

func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[id]; !ok {
		return false
	}
	delete(m.games, id)
	return true
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

// SweepIdle drops matches with no move for longer than maxIdle and returns
// their IDs.
func (m *Manager) SweepIdle(maxIdle time.Duration) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var removed []string
	for id, g := range m.games {
		if now.Sub(g.LastMoveAt) > maxIdle {
			delete(m.games, id)
			removed = append(removed, id)
			log.Printf("game %s dropped after %s idle (phase=%s)", id, maxIdle, g.Phase)
		}
	}
	return removed
}
