package events

import (
	"context"
	"time"

	"vitta/backend/internal/domain"
)

type Kind string

const (
	KindAppointmentAccepted  Kind = "appointment.accepted"
	KindAppointmentCancelled Kind = "appointment.cancelled"
)

// Event reports a completed appointment transition.
type Event struct {
	Kind        Kind
	Appointment domain.Appointment
	OccurredAt  time.Time
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }
