package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"vitta/backend/internal/domain"
	"vitta/backend/internal/events"
)

const DefaultExchange = "vitta.appointments"

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends appointment events to a topic exchange, one routing key
// per event kind.
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	newID    func() string
	log      *slog.Logger
}

type message struct {
	ID          string             `json:"id"`
	Type        events.Kind        `json:"type"`
	OccurredAt  time.Time          `json:"occurredAt"`
	Appointment domain.Appointment `json:"appointment"`
}

func Dial(url, exchange string, log *slog.Logger) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq connect: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq declare exchange %s: %w", exchange, err)
	}

	p := newPublisher(ch, exchange, log)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{
		ch:       ch,
		exchange: exchange,
		newID:    uuid.NewString,
		log:      log.With(slog.String("component", "events.rabbitmq"), slog.String("exchange", exchange)),
	}
}

func (p *Publisher) Notify(ctx context.Context, ev events.Event) error {
	msg := message{
		ID:          p.newID(),
		Type:        ev.Kind,
		OccurredAt:  ev.OccurredAt.UTC(),
		Appointment: ev.Appointment,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Kind, err)
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, string(ev.Kind), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    msg.OccurredAt,
		Type:         string(ev.Kind),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Kind, err)
	}

	p.log.Debug("event published",
		slog.String("routing_key", string(ev.Kind)),
		slog.String("message_id", msg.ID),
		slog.String("appointment_id", ev.Appointment.ID),
	)
	return nil
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
