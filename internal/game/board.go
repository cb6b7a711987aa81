package game

import (
	"errors"
	"fmt"
)

const (
	Columns = 7
	Rows    = 6
	Cells   = Rows * Columns
	ToWin   = 4
)

// Player tags a cell owner. Empty doubles as "no player".
type Player int8

const (
	Empty   Player = 0
	Player1 Player = 1
	Player2 Player = 2
)

func (p Player) Valid() bool {
	return p == Player1 || p == Player2
}

// Opponent returns the other player tag. Empty has no opponent.
func Opponent(p Player) Player {
	switch p {
	case Player1:
		return Player2
	case Player2:
		return Player1
	}
	return Empty
}

var (
	ErrIllegalMove  = errors.New("illegal move")
	ErrNoLegalMove  = errors.New("no legal move")
	ErrGameFinished = errors.New("game already finished")

	ErrInvalidColumn = fmt.Errorf("%w: invalid column", ErrIllegalMove)
	ErrColumnFull    = fmt.Errorf("%w: column is full", ErrIllegalMove)
	ErrInvalidPlayer = fmt.Errorf("%w: invalid player", ErrIllegalMove)
)

// Board is the 7x6 grid in row-major order. Row 0 is the top row.
// It is a value type: assigning or passing a Board copies every cell.
type Board [Cells]Player

// NewGame returns an empty board.
func NewGame() Board {
	return Board{}
}

func index(row, col int) int {
	return row*Columns + col
}

func inBounds(row, col int) bool {
	return row >= 0 && row < Rows && col >= 0 && col < Columns
}

func (b Board) At(row, col int) Player {
	if !inBounds(row, col) {
		return Empty
	}
	return b[index(row, col)]
}

// Rows2D is a nested view of the board, used for JSON payloads.
func (b Board) Rows2D() [Rows][Columns]Player {
	var out [Rows][Columns]Player
	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			out[r][c] = b[index(r, c)]
		}
	}
	return out
}

func (b Board) Filled() int {
	n := 0
	for _, cell := range b {
		if cell != Empty {
			n++
		}
	}
	return n
}

// IsColumnPlayable reports whether the top cell of col is still empty.
func IsColumnPlayable(b Board, col int) bool {
	if col < 0 || col >= Columns {
		return false
	}
	return b[index(0, col)] == Empty
}

func PlayableColumns(b Board) []int {
	cols := make([]int, 0, Columns)
	for col := 0; col < Columns; col++ {
		if IsColumnPlayable(b, col) {
			cols = append(cols, col)
		}
	}
	return cols
}

// ApplyMove drops a piece for player into col and returns the new board and
// the row the piece landed in. The input board is left untouched.
func ApplyMove(b Board, col int, player Player) (Board, int, error) {
	if !player.Valid() {
		return b, -1, ErrInvalidPlayer
	}
	if col < 0 || col >= Columns {
		return b, -1, ErrInvalidColumn
	}
	for row := Rows - 1; row >= 0; row-- {
		if b[index(row, col)] == Empty {
			b[index(row, col)] = player
			return b, row, nil
		}
	}
	return b, -1, ErrColumnFull
}

// scan directions in check order: horizontal, vertical, down-right, down-left.
var directions = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// CheckWinner returns the owner of the first run of four found scanning cells
// in row-major order and directions in the order above, or Empty.
func CheckWinner(b Board) Player {
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			p := b[index(row, col)]
			if p == Empty {
				continue
			}
			for _, d := range directions {
				if runOf(b, row, col, d[0], d[1], p) {
					return p
				}
			}
		}
	}
	return Empty
}

func runOf(b Board, row, col, dr, dc int, p Player) bool {
	endRow, endCol := row+dr*(ToWin-1), col+dc*(ToWin-1)
	if !inBounds(endRow, endCol) {
		return false
	}
	for i := 1; i < ToWin; i++ {
		if b[index(row+dr*i, col+dc*i)] != p {
			return false
		}
	}
	return true
}

// IsDraw reports a full board with no winner.
func IsDraw(b Board) bool {
	for _, cell := range b {
		if cell == Empty {
			return false
		}
	}
	return CheckWinner(b) == Empty
}

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWin        Status = "win"
	StatusDraw       Status = "draw"
)

type Outcome struct {
	Status Status `json:"status"`
	Winner Player `json:"winner,omitempty"`
}

func (o Outcome) Finished() bool {
	return o.Status != StatusInProgress
}

// Evaluate classifies a board. Exactly one status holds for any board.
func Evaluate(b Board) Outcome {
	if w := CheckWinner(b); w != Empty {
		return Outcome{Status: StatusWin, Winner: w}
	}
	if IsDraw(b) {
		return Outcome{Status: StatusDraw}
	}
	return Outcome{Status: StatusInProgress}
}

type Result struct {
	Board   Board
	Row     int
	Column  int
	Outcome Outcome
}

// Play applies a move and classifies the resulting board. A board that is
// already won or drawn is never played on.
func Play(b Board, col int, player Player) (Result, error) {
	if Evaluate(b).Finished() {
		return Result{}, ErrGameFinished
	}
	next, row, err := ApplyMove(b, col, player)
	if err != nil {
		return Result{}, err
	}
	return Result{Board: next, Row: row, Column: col, Outcome: Evaluate(next)}, nil
}
