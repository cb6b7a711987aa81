package server

import (
	"time"

	"emittr/connectfour/internal/game"
	"emittr/connectfour/internal/leaderboard"
)

type gameView struct {
	ID          string                               `json:"id"`
	Mode        game.Mode                            `json:"mode"`
	Player1     string                               `json:"player1"`
	Player2     string                               `json:"player2"`
	Board       [game.Rows][game.Columns]game.Player `json:"board"`
	Turn        game.Player                          `json:"turn"`
	Phase       game.Phase                           `json:"phase"`
	Status      game.Status                          `json:"status"`
	Winner      game.Player                          `json:"winner"`
	MoveCount   int                                  `json:"moveCount"`
	Moves       []game.Move                          `json:"moves"`
	Playable    []int                                `json:"playable"`
	BotThinking bool                                 `json:"botThinking"`
	Summary     *game.Summary                        `json:"summary,omitempty"`
	StartedAt   time.Time                            `json:"startedAt"`
	EndedAt     *time.Time                           `json:"endedAt,omitempty"`
}

func newGameView(g game.Match) gameView {
	v := gameView{
		ID:          g.ID,
		Mode:        g.Mode,
		Player1:     g.Names[0],
		Player2:     g.Names[1],
		Board:       g.Board.Rows2D(),
		Turn:        g.Turn,
		Phase:       g.Phase,
		Status:      g.Outcome.Status,
		Winner:      g.Outcome.Winner,
		MoveCount:   g.MoveCount,
		Moves:       g.Moves,
		Playable:    []int{},
		BotThinking: g.IsBotTurn(),
		Summary:     g.Summary,
		StartedAt:   g.StartedAt,
	}
	if v.Moves == nil {
		v.Moves = []game.Move{}
	}
	if !g.Finished() {
		v.Playable = game.PlayableColumns(g.Board)
	}
	if !g.EndedAt.IsZero() {
		ended := g.EndedAt
		v.EndedAt = &ended
	}
	return v
}

func stateMessage(g game.Match) map[string]any {
	return map[string]any{"type": "state", "game": newGameView(g)}
}

type leaderboardRow struct {
	Rank    int     `json:"rank,omitempty"`
	Name    string  `json:"name"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"winRate"`
}

func newLeaderboardRow(rank int, e leaderboard.Entry) leaderboardRow {
	return leaderboardRow{Rank: rank, Name: e.Name, Wins: e.Wins, Losses: e.Losses, WinRate: e.WinRate()}
}
