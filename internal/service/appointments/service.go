package appointments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"vitta/backend/internal/domain"
	"vitta/backend/internal/events"
	"vitta/backend/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// TransitionError reports an action the appointment's status does not allow.
type TransitionError struct {
	ID     string
	Action string
	Status domain.AppointmentStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s appointment %s in status %s", e.Action, e.ID, e.Status)
}

var ErrBusy = errors.New("appointment operation already in progress")

type Workflow interface {
	Execute(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
}

type MessageKind string

const (
	MessageSuccess MessageKind = "success"
	MessageInfo    MessageKind = "info"
)

type Message struct {
	Kind MessageKind
	Text string
}

type Result struct {
	Appointment domain.Appointment
	Message     Message
}

type Service struct {
	store    store.AppointmentStore
	accept   Workflow
	cancel   Workflow
	notifier events.Notifier
	now      func() time.Time
	log      *slog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

type Option func(*Service)

func WithNotifier(n events.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(st store.AppointmentStore, accept, cancel Workflow, opts ...Option) *Service {
	s := &Service{
		store:    st,
		accept:   accept,
		cancel:   cancel,
		notifier: events.Nop{},
		now:      time.Now,
		log:      slog.Default(),
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(slog.String("component", "service.appointments"))
	return s
}

func (s *Service) List(ctx context.Context) ([]domain.Appointment, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (domain.Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Appointment{}, validationError("id is required")
	}
	return s.store.Get(ctx, id)
}

func (s *Service) Reset(ctx context.Context) ([]domain.Appointment, Message, error) {
	list, err := s.store.Reset(ctx)
	if err != nil {
		s.log.Error("reset failed", slog.Any("err", err))
		return nil, Message{}, err
	}
	return list, Message{Kind: MessageInfo, Text: "Lista de agendamentos resetada."}, nil
}

// Accept moves a pending appointment to accepted and books it in the
// calendar. Accepting an appointment that already has an event is a no-op.
func (s *Service) Accept(ctx context.Context, id string) (Result, error) {
	return s.transition(ctx, id, "accept", func(appt domain.Appointment) (Result, bool, error) {
		switch {
		case appt.Status == domain.AppointmentStatusAccepted && appt.HasCalendarEvent():
			return Result{
				Appointment: appt,
				Message:     Message{Kind: MessageInfo, Text: fmt.Sprintf("Consulta de %s já está aceita.", appt.PatientID)},
			}, false, nil
		case appt.Status == domain.AppointmentStatusPending, appt.Status == domain.AppointmentStatusAccepted:
		default:
			return Result{}, false, &TransitionError{ID: appt.ID, Action: "accept", Status: appt.Status}
		}

		updated, err := s.accept.Execute(ctx, appt)
		if err != nil {
			return Result{}, false, err
		}
		return Result{
			Appointment: updated,
			Message:     Message{Kind: MessageSuccess, Text: fmt.Sprintf("Consulta de %s aceita!", appt.PatientID)},
		}, true, nil
	}, events.KindAppointmentAccepted)
}

// Cancel moves an accepted appointment to cancelled and removes its event.
func (s *Service) Cancel(ctx context.Context, id string) (Result, error) {
	return s.transition(ctx, id, "cancel", func(appt domain.Appointment) (Result, bool, error) {
		switch appt.Status {
		case domain.AppointmentStatusCancelled:
			return Result{
				Appointment: appt,
				Message:     Message{Kind: MessageInfo, Text: fmt.Sprintf("Consulta de %s já está cancelada.", appt.PatientID)},
			}, false, nil
		case domain.AppointmentStatusAccepted:
		default:
			return Result{}, false, &TransitionError{ID: appt.ID, Action: "cancel", Status: appt.Status}
		}

		updated, err := s.cancel.Execute(ctx, appt)
		if err != nil {
			return Result{}, false, err
		}
		return Result{
			Appointment: updated,
			Message:     Message{Kind: MessageInfo, Text: fmt.Sprintf("Consulta de %s cancelada.", appt.PatientID)},
		}, true, nil
	}, events.KindAppointmentCancelled)
}

func (s *Service) transition(
	ctx context.Context,
	id, action string,
	run func(appt domain.Appointment) (Result, bool, error),
	kind events.Kind,
) (Result, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Result{}, validationError("id is required")
	}

	if !s.acquire(id) {
		return Result{}, fmt.Errorf("%w: %s", ErrBusy, id)
	}
	defer s.release(id)

	appt, err := s.store.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}

	res, changed, err := run(appt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSchedule) {
			return Result{}, validationError(err.Error())
		}
		s.log.Warn(action+" failed", slog.String("appointment_id", id), slog.Any("err", err))
		return Result{}, err
	}

	if changed {
		s.publish(ctx, kind, res.Appointment)
	}
	return res, nil
}

func (s *Service) publish(ctx context.Context, kind events.Kind, appt domain.Appointment) {
	err := s.notifier.Notify(ctx, events.Event{Kind: kind, Appointment: appt, OccurredAt: s.now()})
	if err != nil {
		s.log.Warn("notify failed",
			slog.String("kind", string(kind)),
			slog.String("appointment_id", appt.ID),
			slog.Any("err", err),
		)
	}
}

func (s *Service) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *Service) release(id string) {
	s.mu.Lock()
	delete(s.inflight, id)
	s.mu.Unlock()
}
