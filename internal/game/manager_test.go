package game

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drawMoves fills the board into drawBoard, alternating from player 1.
var drawMoves = []int{2, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 3, 3, 3, 3, 3, 3, 6, 4, 4, 4, 4, 4, 4, 5, 5, 5, 5, 5, 5, 6, 6, 6, 6, 6}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestManager(onFinish func(Match)) (*Manager, *clock) {
	clk := &clock{t: time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)}
	m := NewManager(&seqRand{n: 1234}, onFinish)
	m.now = clk.now
	return m, clk
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode(" Bot ")
	require.NoError(t, err)
	assert.Equal(t, ModeBot, mode)

	mode, err = ParseMode("local")
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, mode)

	_, err = ParseMode("online")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestCreateValidatesNames(t *testing.T) {
	m, _ := newTestManager(nil)

	_, err := m.Create(ModeLocal, "alice", "   ")
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = m.Create(ModeLocal, strings.Repeat("a", MaxNameLength+1), "bob")
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = m.Create(Mode("online"), "alice", "bob")
	assert.ErrorIs(t, err, ErrInvalidMode)
	assert.Equal(t, 0, m.Len())

	g, err := m.Create(ModeBot, "  alice ", "ignored")
	require.NoError(t, err)
	assert.Equal(t, [2]string{"alice", BotName}, g.Names)
	assert.Equal(t, Player1, g.Turn)
	assert.Equal(t, PhasePlaying, g.Phase)
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, 1, m.Len())
}

func TestCreateRejectsReservedNames(t *testing.T) {
	m, _ := newTestManager(nil)
	for _, names := range [][2]string{
		{"alice", BotName},
		{"alice", " draw "},
		{"BOT", "bob"},
		{DrawName, "bob"},
	} {
		_, err := m.Create(ModeLocal, names[0], names[1])
		assert.ErrorIs(t, err, ErrInvalidName, "names %q", names)
	}
	_, err := m.Create(ModeBot, BotName, "")
	assert.ErrorIs(t, err, ErrInvalidName)
	assert.Equal(t, 0, m.Len())

	g, err := m.Create(ModeLocal, "Bottle", "Drawer")
	require.NoError(t, err)
	assert.Equal(t, [2]string{"Bottle", "Drawer"}, g.Names)
}

func TestLocalMatchWin(t *testing.T) {
	var finished []Match
	m, _ := newTestManager(func(g Match) { finished = append(finished, g) })

	g, err := m.Create(ModeLocal, "alice", "bob")
	require.NoError(t, err)

	for _, col := range []int{0, 1, 0, 1, 0, 1} {
		g, _, err = m.Play(g.ID, col)
		require.NoError(t, err)
	}
	assert.Equal(t, Player1, g.Turn)
	assert.Empty(t, finished)

	g, res, err := m.Play(g.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, Outcome{Status: StatusWin, Winner: Player1}, res.Outcome)
	assert.Equal(t, PhaseFinished, g.Phase)
	assert.Equal(t, 7, g.MoveCount)
	assert.Len(t, g.Moves, 7)
	require.NotNil(t, g.Summary)
	assert.Equal(t, Summary{Winner: "alice", Loser: "bob", BonusTime: 6234, BonusWin: 1000, TotalScore: 7234}, *g.Summary)

	require.Len(t, finished, 1)
	assert.Equal(t, g.ID, finished[0].ID)

	_, _, err = m.Play(g.ID, 2)
	assert.ErrorIs(t, err, ErrGameFinished)
	assert.Len(t, finished, 1)
}

func TestLocalMatchDraw(t *testing.T) {
	var finished []Match
	m, _ := newTestManager(func(g Match) { finished = append(finished, g) })
	g, err := m.Create(ModeLocal, "alice", "bob")
	require.NoError(t, err)

	for _, col := range drawMoves {
		g, _, err = m.Play(g.ID, col)
		require.NoError(t, err)
	}
	assert.Equal(t, parseBoard(t, drawBoard...), g.Board)
	assert.Equal(t, StatusDraw, g.Outcome.Status)
	require.NotNil(t, g.Summary)
	assert.Equal(t, Summary{Winner: DrawName}, *g.Summary)
	assert.Len(t, finished, 1)
}

func TestPlayRejectsIllegalColumn(t *testing.T) {
	m, _ := newTestManager(nil)
	g, err := m.Create(ModeLocal, "alice", "bob")
	require.NoError(t, err)

	_, _, err = m.Play(g.ID, 9)
	assert.ErrorIs(t, err, ErrIllegalMove)

	g, ok := m.Get(g.ID)
	require.True(t, ok)
	assert.Equal(t, 0, g.MoveCount)
	assert.Equal(t, Player1, g.Turn)
}

func TestBotMatchTurns(t *testing.T) {
	m, _ := newTestManager(nil)
	g, err := m.Create(ModeBot, "alice", "")
	require.NoError(t, err)

	_, _, err = m.PlayBot(g.ID)
	assert.ErrorIs(t, err, ErrInvalidTurn)

	g, _, err = m.Play(g.ID, 3)
	require.NoError(t, err)
	assert.True(t, g.IsBotTurn())

	_, _, err = m.Play(g.ID, 3)
	assert.ErrorIs(t, err, ErrInvalidTurn)

	g, res, err := m.PlayBot(g.ID)
	require.NoError(t, err)
	assert.Equal(t, Player2, g.Board.At(res.Row, res.Column))
	assert.Equal(t, Player1, g.Turn)
	assert.Equal(t, 2, g.MoveCount)
}

func TestBotMatchPlaysToTheEnd(t *testing.T) {
	var finished []Match
	m, _ := newTestManager(func(g Match) { finished = append(finished, g) })
	g, err := m.Create(ModeBot, "alice", "")
	require.NoError(t, err)

	for !g.Finished() {
		col := PlayableColumns(g.Board)[0]
		g, _, err = m.Play(g.ID, col)
		require.NoError(t, err)
		if g.Finished() {
			break
		}
		g, _, err = m.PlayBot(g.ID)
		require.NoError(t, err)
	}
	require.Len(t, finished, 1)
	assert.NotEqual(t, StatusInProgress, g.Outcome.Status)

	_, _, err = m.PlayBot(g.ID)
	assert.ErrorIs(t, err, ErrGameFinished)
}

func TestUnknownMatch(t *testing.T) {
	m, _ := newTestManager(nil)
	_, _, err := m.Play("nope", 0)
	assert.ErrorIs(t, err, ErrGameNotFound)
	_, _, err = m.PlayBot("nope")
	assert.ErrorIs(t, err, ErrGameNotFound)
	_, err = m.Restart("nope")
	assert.ErrorIs(t, err, ErrGameNotFound)
	_, ok := m.Get("nope")
	assert.False(t, ok)
	assert.False(t, m.Remove("nope"))
}

func TestSnapshotsAreIsolated(t *testing.T) {
	m, _ := newTestManager(nil)
	g, err := m.Create(ModeLocal, "alice", "bob")
	require.NoError(t, err)
	g, _, err = m.Play(g.ID, 4)
	require.NoError(t, err)

	g.Moves[0].Column = 6
	g.Board[0] = Player2

	again, ok := m.Get(g.ID)
	require.True(t, ok)
	assert.Equal(t, 4, again.Moves[0].Column)
	assert.Equal(t, Empty, again.Board[0])
}

func TestRestartKeepsSeats(t *testing.T) {
	m, _ := newTestManager(nil)
	g, err := m.Create(ModeLocal, "alice", "bob")
	require.NoError(t, err)
	for _, col := range []int{0, 1, 0, 1, 0, 1, 0} {
		g, _, err = m.Play(g.ID, col)
		require.NoError(t, err)
	}
	require.True(t, g.Finished())

	g, err = m.Restart(g.ID)
	require.NoError(t, err)
	assert.Equal(t, [2]string{"alice", "bob"}, g.Names)
	assert.Equal(t, NewGame(), g.Board)
	assert.Equal(t, PhasePlaying, g.Phase)
	assert.Nil(t, g.Summary)
	assert.Empty(t, g.Moves)
}

func TestSweepIdle(t *testing.T) {
	m, clk := newTestManager(nil)
	stale, err := m.Create(ModeLocal, "alice", "bob")
	require.NoError(t, err)

	clk.t = clk.t.Add(20 * time.Minute)
	fresh, err := m.Create(ModeBot, "carol", "")
	require.NoError(t, err)

	clk.t = clk.t.Add(15 * time.Minute)
	assert.Equal(t, []string{stale.ID}, m.SweepIdle(30*time.Minute))
	assert.Empty(t, m.SweepIdle(30*time.Minute))

	_, ok := m.Get(stale.ID)
	assert.False(t, ok)
	_, ok = m.Get(fresh.ID)
	assert.True(t, ok)
}

func TestSeatAndNames(t *testing.T) {
	m, _ := newTestManager(nil)
	g, err := m.Create(ModeLocal, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, Player2, g.Seat("bob"))
	assert.Equal(t, Empty, g.Seat("carol"))
	assert.Equal(t, "alice", g.NameOf(Player1))
	assert.Equal(t, "", g.NameOf(Empty))
}
