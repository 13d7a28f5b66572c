package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"vitta/backend/internal/calendar"
	"vitta/backend/internal/domain"
)

type Cancel struct {
	cal   Calendar
	store Store
	opts  options
}

func NewCancel(cal Calendar, store Store, opts ...Option) *Cancel {
	return &Cancel{cal: cal, store: store, opts: buildOptions("workflow.cancel", opts)}
}

// Execute removes the linked calendar event, if any, then stores appt as
// cancelled. An event already gone from the calendar counts as removed.
func (w *Cancel) Execute(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if appt.HasCalendarEvent() {
		eventID := appt.EventID()
		err := w.cal.DeleteEvent(ctx, eventID)
		switch {
		case errors.Is(err, calendar.ErrEventNotFound):
			w.opts.log.Warn("calendar event already removed",
				slog.String("appointment_id", appt.ID),
				slog.String("event_id", eventID),
			)
		case err != nil:
			return domain.Appointment{}, err
		}
	}

	updated := appt
	updated.Status = domain.AppointmentStatusCancelled
	updated.CalendarEventID = nil
	updated.UpdatedAt = w.opts.now()

	if err := w.store.Upsert(ctx, updated); err != nil {
		return domain.Appointment{}, fmt.Errorf("persist cancelled appointment: %w", err)
	}

	w.opts.log.Info("appointment cancelled", slog.String("appointment_id", appt.ID))
	return updated, nil
}
