package calendar

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryPlatform keeps calendars and events in process. It backs local
// development and tests.
type MemoryPlatform struct {
	mu        sync.Mutex
	status    PermissionStatus
	onRequest PermissionStatus
	calendars []Descriptor
	events    map[string]StoredEvent
}

type StoredEvent struct {
	CalendarID string
	Event
}

// NewMemoryPlatform starts with the given permission status; a permission
// request moves it to grant.
func NewMemoryPlatform(status, grant PermissionStatus, calendars ...Descriptor) *MemoryPlatform {
	if status == "" {
		status = PermissionUndetermined
	}
	if grant == "" {
		grant = PermissionAuthorized
	}
	return &MemoryPlatform{
		status:    status,
		onRequest: grant,
		calendars: append([]Descriptor(nil), calendars...),
		events:    make(map[string]StoredEvent),
	}
}

func DefaultMemoryCalendars() []Descriptor {
	return []Descriptor{
		{ID: "local", Title: "On device", Writable: true, Source: "local"},
		{ID: "primary", Title: "Personal", Writable: true, Primary: true, Source: "com.google", OwnerAccount: "nutri@gmail.com"},
	}
}

func (p *MemoryPlatform) CheckPermissions(ctx context.Context) (PermissionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status, nil
}

func (p *MemoryPlatform) RequestPermissions(ctx context.Context) (PermissionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != PermissionAuthorized {
		p.status = p.onRequest
	}
	return p.status, nil
}

func (p *MemoryPlatform) FindCalendars(ctx context.Context) ([]Descriptor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Descriptor(nil), p.calendars...), nil
}

func (p *MemoryPlatform) SaveEvent(ctx context.Context, calendarID string, ev Event) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := uuid.NewString()
	p.events[id] = StoredEvent{CalendarID: calendarID, Event: ev}
	return id, nil
}

func (p *MemoryPlatform) RemoveEvent(ctx context.Context, eventID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.events[eventID]; !ok {
		return ErrEventNotFound
	}
	delete(p.events, eventID)
	return nil
}

func (p *MemoryPlatform) Events() map[string]StoredEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]StoredEvent, len(p.events))
	for id, ev := range p.events {
		out[id] = ev
	}
	return out
}
