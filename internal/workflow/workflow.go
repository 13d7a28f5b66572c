// Package workflow couples appointment state transitions to the calendar
// event lifecycle and persists the outcome.
package workflow

import (
	"context"
	"log/slog"
	"time"

	"vitta/backend/internal/calendar"
	"vitta/backend/internal/domain"
)

type Calendar interface {
	CreateEvent(ctx context.Context, ev calendar.Event) (string, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

type Store interface {
	Upsert(ctx context.Context, appt domain.Appointment) error
}

const (
	eventTitlePrefix = "Consulta • "
	reminderBefore   = 60 * time.Minute
)

type options struct {
	loc *time.Location
	now func() time.Time
	log *slog.Logger
}

type Option func(*options)

// WithLocation sets the zone appointment dates and times are read in.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.loc = loc }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

func buildOptions(component string, opts []Option) options {
	o := options{loc: time.Local, now: time.Now, log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.loc == nil {
		o.loc = time.Local
	}
	o.log = o.log.With(slog.String("component", component))
	return o
}
