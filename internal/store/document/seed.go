package document

import (
	"time"

	"vitta/backend/internal/domain"
)

const seedNutritionistID = "nutri-1"

// DefaultAppointments is the demo list: two pending requests tomorrow and one
// accepted consultation the day after, already linked to a calendar event.
func DefaultAppointments(now time.Time) []domain.Appointment {
	tomorrow := now.AddDate(0, 0, 1).Format(domain.DateLayout)
	dayAfter := now.AddDate(0, 0, 2).Format(domain.DateLayout)

	return []domain.Appointment{
		{
			ID:             "appt-1",
			PatientID:      "João Silva",
			NutritionistID: seedNutritionistID,
			Date:           tomorrow,
			TimeStart:      "10:00",
			TimeEnd:        "11:00",
			Status:         domain.AppointmentStatusPending,
			Observations:   "Primeira consulta - Avaliação inicial.",
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:             "appt-2",
			PatientID:      "Maria Oliveira",
			NutritionistID: seedNutritionistID,
			Date:           tomorrow,
			TimeStart:      "14:00",
			TimeEnd:        "15:00",
			Status:         domain.AppointmentStatusPending,
			Observations:   "Retorno - Foco em hipertrofia.",
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:              "appt-3",
			PatientID:       "Carlos Souza",
			NutritionistID:  seedNutritionistID,
			Date:            dayAfter,
			TimeStart:       "09:00",
			TimeEnd:         "09:30",
			Status:          domain.AppointmentStatusAccepted,
			Observations:    "Acompanhamento mensal.",
			CreatedAt:       now,
			UpdatedAt:       now,
			CalendarEventID: domain.StringPtr("mock-event-id-existing"),
		},
	}
}
