package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

type PermissionStatus string

const (
	PermissionAuthorized   PermissionStatus = "authorized"
	PermissionDenied       PermissionStatus = "denied"
	PermissionRestricted   PermissionStatus = "restricted"
	PermissionUndetermined PermissionStatus = "undetermined"
)

// Event is what gets written to a platform calendar.
type Event struct {
	Title     string
	Start     time.Time
	End       time.Time
	Notes     string
	Reminders []time.Duration
}

// Platform is the device or account calendar the gateway talks to.
type Platform interface {
	CheckPermissions(ctx context.Context) (PermissionStatus, error)
	RequestPermissions(ctx context.Context) (PermissionStatus, error)
	FindCalendars(ctx context.Context) ([]Descriptor, error)
	SaveEvent(ctx context.Context, calendarID string, ev Event) (string, error)
	// RemoveEvent returns ErrEventNotFound when the event is already gone.
	RemoveEvent(ctx context.Context, eventID string) error
}

type Gateway struct {
	platform Platform
	log      *slog.Logger

	mu         sync.Mutex
	calendarID string
}

func NewGateway(platform Platform, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		platform: platform,
		log:      log.With(slog.String("component", "calendar.gateway")),
	}
}

// EnsurePermissions returns the current status without prompting when it is
// already authorized, otherwise the outcome of a permission request.
func (g *Gateway) EnsurePermissions(ctx context.Context) (PermissionStatus, error) {
	status, err := g.platform.CheckPermissions(ctx)
	if err != nil {
		return "", fmt.Errorf("check calendar permissions: %w", err)
	}
	if status == PermissionAuthorized {
		return status, nil
	}

	requested, err := g.platform.RequestPermissions(ctx)
	if err != nil {
		return "", fmt.Errorf("request calendar permissions: %w", err)
	}
	g.log.Info("calendar permission requested", slog.String("previous", string(status)), slog.String("status", string(requested)))
	return requested, nil
}

func (g *Gateway) CreateEvent(ctx context.Context, ev Event) (string, error) {
	if err := g.requireAuthorized(ctx); err != nil {
		return "", err
	}

	calendarID, err := g.resolveWritableCalendar(ctx)
	if err != nil {
		return "", err
	}

	id, err := g.platform.SaveEvent(ctx, calendarID, ev)
	if err != nil {
		return "", fmt.Errorf("save calendar event: %w", err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("save calendar event: platform returned empty event id")
	}

	g.log.Debug("calendar event created", slog.String("calendar_id", calendarID), slog.String("event_id", id))
	return id, nil
}

func (g *Gateway) DeleteEvent(ctx context.Context, eventID string) error {
	if err := g.requireAuthorized(ctx); err != nil {
		return err
	}
	if err := g.platform.RemoveEvent(ctx, eventID); err != nil {
		return fmt.Errorf("remove calendar event %s: %w", eventID, err)
	}
	g.log.Debug("calendar event removed", slog.String("event_id", eventID))
	return nil
}

func (g *Gateway) requireAuthorized(ctx context.Context) error {
	status, err := g.EnsurePermissions(ctx)
	if err != nil {
		return err
	}
	if status != PermissionAuthorized {
		return fmt.Errorf("%w: status %s", ErrPermissionDenied, status)
	}
	return nil
}

// resolveWritableCalendar is computed once per Gateway; failures are not cached.
func (g *Gateway) resolveWritableCalendar(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.calendarID != "" {
		return g.calendarID, nil
	}

	calendars, err := g.platform.FindCalendars(ctx)
	if err != nil {
		return "", fmt.Errorf("find calendars: %w", err)
	}
	id, err := SelectWritableCalendar(calendars)
	if err != nil {
		g.log.Warn("no writable calendar", slog.Int("calendars", len(calendars)))
		return "", err
	}

	g.calendarID = id
	g.log.Info("writable calendar resolved", slog.String("calendar_id", id))
	return id, nil
}
