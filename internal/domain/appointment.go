package domain

import (
	"errors"
	"fmt"
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusAccepted  AppointmentStatus = "accepted"
	AppointmentStatusRejected  AppointmentStatus = "rejected"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusAccepted, AppointmentStatusRejected, AppointmentStatusCancelled:
		return true
	default:
		return false
	}
}

const (
	DateLayout      = "2006-01-02"
	TimeOfDayLayout = "15:04"
)

// Appointment is one consultation between a patient and a nutritionist.
// Field names in JSON match the documents persisted by the mobile app.
type Appointment struct {
	ID              string            `json:"id"`
	PatientID       string            `json:"patientId"`
	NutritionistID  string            `json:"nutritionistId"`
	Date            string            `json:"date"`
	TimeStart       string            `json:"timeStart"`
	TimeEnd         string            `json:"timeEnd"`
	Status          AppointmentStatus `json:"status"`
	Observations    string            `json:"observations,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
	CalendarEventID *string           `json:"calendarEventId"`
}

var (
	ErrInvariantViolated = errors.New("appointment invariant violated")
	ErrInvalidSchedule   = errors.New("invalid appointment schedule")
)

func (a Appointment) HasCalendarEvent() bool {
	return a.CalendarEventID != nil && *a.CalendarEventID != ""
}

func (a Appointment) EventID() string {
	if a.CalendarEventID == nil {
		return ""
	}
	return *a.CalendarEventID
}

// CheckInvariants reports a calendar event attached to a non-accepted appointment.
func (a Appointment) CheckInvariants() error {
	if a.CalendarEventID != nil && a.Status != AppointmentStatusAccepted {
		return fmt.Errorf("%w: %s has calendar event with status %s", ErrInvariantViolated, a.ID, a.Status)
	}
	return nil
}

// Interval combines Date with TimeStart/TimeEnd as wall-clock times in loc.
func (a Appointment) Interval(loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	start, err := time.ParseInLocation(DateLayout+" "+TimeOfDayLayout, a.Date+" "+a.TimeStart, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start of %s: %v", ErrInvalidSchedule, a.ID, err)
	}
	end, err := time.ParseInLocation(DateLayout+" "+TimeOfDayLayout, a.Date+" "+a.TimeEnd, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end of %s: %v", ErrInvalidSchedule, a.ID, err)
	}
	return start, end, nil
}

func StringPtr(s string) *string {
	return &s
}
