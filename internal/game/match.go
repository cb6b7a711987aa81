package game

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeBot   Mode = "bot"
)

type Phase string

const (
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

const (
	BotName       = "Bot"
	DrawName      = "Draw"
	MaxNameLength = 20

	bonusWin       = 1000
	bonusTimeBase  = 5000
	bonusTimeRange = 10000
)

var (
	ErrInvalidTurn  = errors.New("not your turn")
	ErrInvalidName  = errors.New("player name must be 1-20 characters")
	ErrInvalidMode  = errors.New("unknown game mode")
	ErrGameNotFound = errors.New("game not found")
)

type Move struct {
	Column int       `json:"column"`
	Row    int       `json:"row"`
	Player Player    `json:"player"`
	At     time.Time `json:"at"`
}

// Summary is the result card shown once a match ends.
type Summary struct {
	Winner     string `json:"winner"`
	Loser      string `json:"loser,omitempty"`
	BonusTime  int    `json:"bonusTime"`
	BonusWin   int    `json:"bonusWin"`
	TotalScore int    `json:"totalScore"`
}

// Match is the explicit state of one game between two named seats.
// Player1 always moves first; in bot mode the bot holds Player2.
type Match struct {
	ID         string
	Mode       Mode
	Names      [2]string
	Board      Board
	Turn       Player
	Phase      Phase
	Outcome    Outcome
	MoveCount  int
	Moves      []Move
	StartedAt  time.Time
	EndedAt    time.Time
	LastMoveAt time.Time
	Summary    *Summary
}

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLocal:
		return ModeLocal, nil
	case ModeBot:
		return ModeBot, nil
	}
	return "", ErrInvalidMode
}

// normalizeName trims the name and refuses the labels the result card and
// leaderboard reserve for the bot and for draws.
func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > MaxNameLength {
		return "", ErrInvalidName
	}
	if strings.EqualFold(name, BotName) || strings.EqualFold(name, DrawName) {
		return "", fmt.Errorf("%w: %q is reserved", ErrInvalidName, name)
	}
	return name, nil
}

func newMatch(id string, mode Mode, player1, player2 string, now time.Time) (*Match, error) {
	p1, err := normalizeName(player1)
	if err != nil {
		return nil, err
	}
	var p2 string
	switch mode {
	case ModeBot:
		p2 = BotName
	case ModeLocal:
		if p2, err = normalizeName(player2); err != nil {
			return nil, err
		}
	default:
		return nil, ErrInvalidMode
	}
	m := &Match{ID: id, Mode: mode, Names: [2]string{p1, p2}}
	m.reset(now)
	return m, nil
}

func (m *Match) reset(now time.Time) {
	m.Board = NewGame()
	m.Turn = Player1
	m.Phase = PhasePlaying
	m.Outcome = Outcome{Status: StatusInProgress}
	m.MoveCount = 0
	m.Moves = nil
	m.StartedAt = now
	m.EndedAt = time.Time{}
	m.LastMoveAt = now
	m.Summary = nil
}

func (m *Match) NameOf(p Player) string {
	if !p.Valid() {
		return ""
	}
	return m.Names[p-1]
}

func (m *Match) IsBotTurn() bool {
	return m.Mode == ModeBot && m.Phase == PhasePlaying && m.Turn == Player2
}

func (m *Match) Finished() bool {
	return m.Phase == PhaseFinished
}

// Seat returns the player tag held by name, or Empty.
func (m *Match) Seat(name string) Player {
	for i, n := range m.Names {
		if n == name {
			return Player(i + 1)
		}
	}
	return Empty
}

func (m *Match) apply(col int, p Player, now time.Time, rng RandSource) (Result, error) {
	if m.Phase == PhaseFinished {
		return Result{}, ErrGameFinished
	}
	if p != m.Turn {
		return Result{}, ErrInvalidTurn
	}
	res, err := Play(m.Board, col, p)
	if err != nil {
		return Result{}, err
	}
	m.Board = res.Board
	m.MoveCount++
	m.Moves = append(m.Moves, Move{Column: col, Row: res.Row, Player: p, At: now})
	m.LastMoveAt = now
	m.Outcome = res.Outcome
	if res.Outcome.Finished() {
		m.finish(now, rng)
	} else {
		m.Turn = Opponent(p)
	}
	return res, nil
}

func (m *Match) finish(now time.Time, rng RandSource) {
	m.Phase = PhaseFinished
	m.EndedAt = now
	if m.Outcome.Status == StatusDraw {
		m.Summary = &Summary{Winner: DrawName}
		return
	}
	bonusTime := bonusTimeBase + rng.Intn(bonusTimeRange)
	m.Summary = &Summary{
		Winner:     m.NameOf(m.Outcome.Winner),
		Loser:      m.NameOf(Opponent(m.Outcome.Winner)),
		BonusTime:  bonusTime,
		BonusWin:   bonusWin,
		TotalScore: bonusTime + bonusWin,
	}
}

// snapshot copies the match so callers never share the registry's state.
func (m *Match) snapshot() Match {
	out := *m
	out.Moves = append([]Move(nil), m.Moves...)
	if m.Summary != nil {
		s := *m.Summary
		out.Summary = &s
	}
	return out
}
