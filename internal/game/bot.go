package game

import (
	"math"
	"math/rand"
)

const (
	threeInWindow = 100
	twoInWindow   = 10
	jitterRange   = 10.0
)

// RandSource is the randomness the bot draws from. *rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
	Intn(n int) int
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) Intn(n int) int   { return rand.Intn(n) }

// DefaultRand uses the goroutine-safe top-level math/rand functions.
var DefaultRand RandSource = globalRand{}

// Bot plays a single-ply heuristic: win, then block, then the column with
// the best combined threat score plus a little jitter.
type Bot struct {
	Player   Player
	Opponent Player
	rng      RandSource
}

func NewBot(player Player, rng RandSource) *Bot {
	if rng == nil {
		rng = DefaultRand
	}
	return &Bot{Player: player, Opponent: Opponent(player), rng: rng}
}

// ChooseBotMove picks a column for bot against human using DefaultRand.
func ChooseBotMove(b Board, bot, human Player) (int, error) {
	return (&Bot{Player: bot, Opponent: human, rng: DefaultRand}).ChooseMove(b)
}

func (bt *Bot) ChooseMove(b Board) (int, error) {
	valid := PlayableColumns(b)
	if len(valid) == 0 {
		return -1, ErrNoLegalMove
	}

	// 1. Take a column that wins outright.
	if col, ok := findImmediate(b, valid, bt.Player); ok {
		return col, nil
	}
	// 2. Block a column where the opponent would win outright.
	if col, ok := findImmediate(b, valid, bt.Opponent); ok {
		return col, nil
	}

	// 3. Threat sweep.
	best := -1
	bestScore := math.Inf(-1)
	for _, col := range valid {
		mine, _, _ := ApplyMove(b, col, bt.Player)
		botScore := ScoreThreats(mine, bt.Player)
		if botScore >= threeInWindow {
			return col, nil
		}

		theirs, _, _ := ApplyMove(b, col, bt.Opponent)
		oppScore := ScoreThreats(theirs, bt.Opponent)
		if oppScore >= threeInWindow {
			return col, nil
		}

		score := float64(botScore+oppScore) + bt.rng.Float64()*jitterRange
		if score > bestScore {
			bestScore = score
			best = col
		}
	}

	// 4. Fallback: any playable column.
	if best == -1 {
		best = valid[bt.rng.Intn(len(valid))]
	}
	return best, nil
}

func findImmediate(b Board, valid []int, p Player) (int, bool) {
	for _, col := range valid {
		next, _, err := ApplyMove(b, col, p)
		if err == nil && CheckWinner(next) == p {
			return col, true
		}
	}
	return -1, false
}

// ScoreThreats sums horizontal and vertical windows of four: 100 for three
// cells owned by p, 10 for two. Other cells in the window are not inspected
// and diagonal windows are not scored.
func ScoreThreats(b Board, p Player) int {
	score := 0
	// horizontal
	for row := 0; row < Rows; row++ {
		for col := 0; col <= Columns-ToWin; col++ {
			score += windowScore(b, row, col, 0, 1, p)
		}
	}
	// vertical
	for row := 0; row <= Rows-ToWin; row++ {
		for col := 0; col < Columns; col++ {
			score += windowScore(b, row, col, 1, 0, p)
		}
	}
	return score
}

func windowScore(b Board, row, col, dr, dc int, p Player) int {
	count := 0
	for i := 0; i < ToWin; i++ {
		if b[index(row+dr*i, col+dc*i)] == p {
			count++
		}
	}
	switch count {
	case 3:
		return threeInWindow
	case 2:
		return twoInWindow
	}
	return 0
}
