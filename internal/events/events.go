package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TypeUserRegistered     = "user_registered"
	TypeUserLoggedIn       = "user_logged_in"
	TypeHighscoreSubmitted = "highscore_submitted"
)

type Event struct {
	Type       string    `json:"type"`
	Username   string    `json:"username"`
	Score      *int      `json:"score,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func New(typ, username string) Event {
	return Event{Type: typ, Username: username, OccurredAt: time.Now().UTC()}
}

func (e Event) WithScore(score int) Event {
	e.Score = &score
	return e
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON keyed by username.
type KafkaPublisher struct {
	w messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}
	msg := kafka.Message{Key: []byte(e.Username), Value: data, Time: e.OccurredAt}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write %s failed: %w", e.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
