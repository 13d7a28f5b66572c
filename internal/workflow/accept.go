package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vitta/backend/internal/calendar"
	"vitta/backend/internal/domain"
)

type Accept struct {
	cal   Calendar
	store Store
	opts  options
}

func NewAccept(cal Calendar, store Store, opts ...Option) *Accept {
	return &Accept{cal: cal, store: store, opts: buildOptions("workflow.accept", opts)}
}

// Execute creates the calendar event for appt and stores it as accepted.
// An appointment that is already accepted with an event is returned as is.
func (w *Accept) Execute(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if appt.Status == domain.AppointmentStatusAccepted && appt.HasCalendarEvent() {
		return appt, nil
	}

	start, end, err := appt.Interval(w.opts.loc)
	if err != nil {
		return domain.Appointment{}, err
	}

	eventID, err := w.cal.CreateEvent(ctx, calendar.Event{
		Title:     eventTitlePrefix + appt.PatientID,
		Start:     start,
		End:       end,
		Notes:     appt.Observations,
		Reminders: []time.Duration{reminderBefore},
	})
	if err != nil {
		return domain.Appointment{}, err
	}

	updated := appt
	updated.Status = domain.AppointmentStatusAccepted
	updated.CalendarEventID = domain.StringPtr(eventID)
	updated.UpdatedAt = w.opts.now()

	if err := w.store.Upsert(ctx, updated); err != nil {
		w.compensate(ctx, appt.ID, eventID)
		return domain.Appointment{}, fmt.Errorf("persist accepted appointment: %w", err)
	}

	w.opts.log.Info("appointment accepted",
		slog.String("appointment_id", appt.ID),
		slog.String("event_id", eventID),
	)
	return updated, nil
}

// compensate removes an event whose appointment could not be stored.
func (w *Accept) compensate(ctx context.Context, appointmentID, eventID string) {
	if err := w.cal.DeleteEvent(context.WithoutCancel(ctx), eventID); err != nil {
		w.opts.log.Error("orphaned calendar event",
			slog.String("appointment_id", appointmentID),
			slog.String("event_id", eventID),
			slog.Any("err", err),
		)
		return
	}
	w.opts.log.Warn("calendar event rolled back",
		slog.String("appointment_id", appointmentID),
		slog.String("event_id", eventID),
	)
}
