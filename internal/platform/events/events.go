// Package events publishes ward domain events (admissions, consultations,
// appointments) to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const (
	PatientAdmitted       = "patient.admitted"
	PatientReadmitted     = "patient.readmitted"
	PatientDischarged     = "patient.discharged"
	PatientDeleted        = "patient.deleted"
	ConsultationRequested = "consultation.requested"
	ConsultationClosed    = "consultation.closed"
	AppointmentBooked     = "appointment.booked"
	AppointmentUpdated    = "appointment.updated"
	AppointmentsExpired   = "appointments.expired"
)

type Event struct {
	Type       string            `json:"type"`
	EntityID   string            `json:"entity_id"`
	Actor      string            `json:"actor,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	Data       map[string]string `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// KafkaPublisher writes one message per event, keyed by entity id so all
// events for a patient land on the same partition. Writes are asynchronous;
// delivery failures are reported to the logger once retries run out.
type KafkaPublisher struct {
	w      *kafka.Writer
	logger zerolog.Logger
}

const (
	kafkaWriteTimeout = 2 * time.Second
	kafkaMaxAttempts  = 3
)

func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) *KafkaPublisher {
	p := &KafkaPublisher{logger: logger}
	p.w = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		WriteTimeout: kafkaWriteTimeout,
		MaxAttempts:  kafkaMaxAttempts,
		Completion:   p.completed,
	}
	return p
}

func (p *KafkaPublisher) completed(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range messages {
		ev := p.logger.Warn().Err(err).Str("entity_id", string(m.Key))
		for _, h := range m.Headers {
			if h.Key == "type" {
				ev = ev.Str("event", string(h.Value))
			}
		}
		ev.Msg("event delivery failed")
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.EntityID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// Logged wraps a publisher so that failures are logged and swallowed. Ward
// mutations never fail because the event bus is down.
func Logged(p Publisher, logger zerolog.Logger) Publisher {
	return &loggedPublisher{next: p, logger: logger}
}

type loggedPublisher struct {
	next   Publisher
	logger zerolog.Logger
}

func (l *loggedPublisher) Publish(ctx context.Context, e Event) error {
	if err := l.next.Publish(ctx, e); err != nil {
		l.logger.Warn().Err(err).
			Str("event", e.Type).
			Str("entity_id", e.EntityID).
			Msg("event publish failed")
	}
	return nil
}

// Recorder keeps published events in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the event types in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
