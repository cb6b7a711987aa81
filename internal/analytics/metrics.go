package analytics

import (
	"log"
	"sync"
	"time"

	"emittr/connectfour/internal/game"
)

// Metrics aggregates finished-game events for the consumer.
type Metrics struct {
	mu            sync.Mutex
	winnerCounts  map[string]int
	gameDurations []float64
	gamesPerDay   map[string]int
	gamesPerHour  map[string]int
	gamesPerMode  map[string]int
	userGames     map[string]int
	movesSeen     int
	draws         int
	totalGames    int
}

type Summary struct {
	TotalGames      int
	Draws           int
	MovesSeen       int
	AverageDuration float64
	WinnerCounts    map[string]int
	GamesPerDay     map[string]int
	GamesPerHour    map[string]int
	GamesPerMode    map[string]int
	UserGames       map[string]int
}

func NewMetrics() *Metrics {
	return &Metrics{
		winnerCounts: make(map[string]int),
		gamesPerDay:  make(map[string]int),
		gamesPerHour: make(map[string]int),
		gamesPerMode: make(map[string]int),
		userGames:    make(map[string]int),
	}
}

// Record folds one event into the totals. Unknown events are ignored.
func (m *Metrics) Record(e Event) {
	switch e.Event {
	case EventMovePlayed:
		m.mu.Lock()
		m.movesSeen++
		m.mu.Unlock()
	case EventGameFinished:
		m.recordGameFinished(e.Payload, e.Timestamp)
	}
}

func (m *Metrics) recordGameFinished(payload map[string]any, timestamp time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalGames++

	status, _ := payload["status"].(string)
	if status == string(game.StatusDraw) {
		m.draws++
	}
	// only human wins are tracked per user
	if winner, ok := payload["winner"].(string); ok && status != string(game.StatusDraw) && countedPlayer(winner) {
		m.winnerCounts[winner]++
	}
	if duration, ok := payload["duration"].(float64); ok {
		m.gameDurations = append(m.gameDurations, duration)
	}
	if mode, ok := payload["mode"].(string); ok && mode != "" {
		m.gamesPerMode[mode]++
	}

	m.gamesPerDay[timestamp.Format("2006-01-02")]++
	m.gamesPerHour[timestamp.Format("2006-01-02 15:00")]++

	if players, ok := payload["players"].([]any); ok {
		for _, p := range players {
			if username, ok := p.(string); ok && countedPlayer(username) {
				m.userGames[username]++
			}
		}
	}
}

func countedPlayer(name string) bool {
	return name != "" && name != game.BotName && name != game.DrawName
}

func copyCounts(src map[string]int) map[string]int {
	out := make(map[string]int, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func (m *Metrics) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	avg := 0.0
	if len(m.gameDurations) > 0 {
		sum := 0.0
		for _, d := range m.gameDurations {
			sum += d
		}
		avg = sum / float64(len(m.gameDurations))
	}
	return Summary{
		TotalGames:      m.totalGames,
		Draws:           m.draws,
		MovesSeen:       m.movesSeen,
		AverageDuration: avg,
		WinnerCounts:    copyCounts(m.winnerCounts),
		GamesPerDay:     copyCounts(m.gamesPerDay),
		GamesPerHour:    copyCounts(m.gamesPerHour),
		GamesPerMode:    copyCounts(m.gamesPerMode),
		UserGames:       copyCounts(m.userGames),
	}
}

func (m *Metrics) PrintStats() {
	s := m.Summary()
	log.Printf("=== ANALYTICS SUMMARY ===")
	log.Printf("Total Games: %d (draws: %d, moves: %d)", s.TotalGames, s.Draws, s.MovesSeen)
	log.Printf("Average Game Duration: %.2f seconds", s.AverageDuration)
	log.Printf("Games Per Mode: %v", s.GamesPerMode)
	log.Printf("Most Frequent Winners: %v", s.WinnerCounts)
	log.Printf("Games Per Day: %v", s.GamesPerDay)
	log.Printf("Games Per Hour: %v", s.GamesPerHour)
	log.Printf("User Game Counts: %v", s.UserGames)
	log.Printf("========================")
}
