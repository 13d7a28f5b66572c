package calendar

import "errors"

var (
	ErrPermissionDenied   = errors.New("calendar permission not granted")
	ErrNoWritableCalendar = errors.New("no writable calendar available")
	ErrEventNotFound      = errors.New("calendar event not found")
)
