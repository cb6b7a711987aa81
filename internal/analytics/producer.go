package analytics

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"emittr/connectfour/internal/game"

	"github.com/segmentio/kafka-go"
)

const (
	EventGameStarted  = "game_started"
	EventMovePlayed   = "move_played"
	EventGameFinished = "game_finished"
)

// Event is the envelope written to the topic.
type Event struct {
	Event     string         `json:"event"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

// Producer publishes game events. A nil Producer is a no-op.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: writer}
}

// Publish keys the message by gameId so one game's events stay ordered.
func (p *Producer) Publish(ctx context.Context, event string, payload map[string]any) {
	if p == nil || p.writer == nil {
		return
	}
	body := Event{
		Event:     event,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
	data, _ := json.Marshal(body)
	msg := kafka.Message{Value: data}
	if id, ok := payload["gameId"].(string); ok {
		msg.Key = []byte(id)
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("kafka publish failed: %v", err)
	}
}

// GameStarted announces a new match.
func (p *Producer) GameStarted(ctx context.Context, m game.Match) {
	p.Publish(ctx, EventGameStarted, StartedPayload(m))
}

// MovePlayed reports a single drop, human or bot.
func (p *Producer) MovePlayed(ctx context.Context, m game.Match, res game.Result) {
	p.Publish(ctx, EventMovePlayed, MovePayload(m, res))
}

// GameFinished reports the final outcome of a match.
func (p *Producer) GameFinished(ctx context.Context, m game.Match) {
	p.Publish(ctx, EventGameFinished, FinishedPayload(m))
}

func StartedPayload(m game.Match) map[string]any {
	return map[string]any{
		"gameId":  m.ID,
		"mode":    string(m.Mode),
		"players": []string{m.Names[0], m.Names[1]},
	}
}

func MovePayload(m game.Match, res game.Result) map[string]any {
	return map[string]any{
		"gameId": m.ID,
		"mode":   string(m.Mode),
		"column": res.Column,
		"row":    res.Row,
		"player": m.Board.At(res.Row, res.Column),
		"moves":  m.MoveCount,
		"status": string(m.Outcome.Status),
	}
}

// FinishedPayload names the winning seat only for a win; draws carry an
// empty winner.
func FinishedPayload(m game.Match) map[string]any {
	winner, loser := "", ""
	if m.Outcome.Status == game.StatusWin {
		winner = m.NameOf(m.Outcome.Winner)
		loser = m.NameOf(game.Opponent(m.Outcome.Winner))
	}
	payload := map[string]any{
		"gameId":    m.ID,
		"mode":      string(m.Mode),
		"status":    string(m.Outcome.Status),
		"winner":    winner,
		"loser":     loser,
		"players":   []string{m.Names[0], m.Names[1]},
		"moves":     m.MoveCount,
		"startedAt": m.StartedAt,
		"endedAt":   m.EndedAt,
	}
	if !m.EndedAt.IsZero() {
		payload["duration"] = m.EndedAt.Sub(m.StartedAt).Seconds()
	}
	return payload
}

func (p *Producer) Close() {
	if p == nil || p.writer == nil {
		return
	}
	_ = p.writer.Close()
}
