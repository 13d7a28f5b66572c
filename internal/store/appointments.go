package store

import (
	"context"

	"vitta/backend/internal/domain"
)

const DefaultAppointmentsKey = "vitta_appointments_v2"

type AppointmentStore interface {
	// List seeds the default appointments when nothing is stored yet.
	List(ctx context.Context) ([]domain.Appointment, error)
	Get(ctx context.Context, id string) (domain.Appointment, error)
	Upsert(ctx context.Context, appt domain.Appointment) error
	Reset(ctx context.Context) ([]domain.Appointment, error)
}
