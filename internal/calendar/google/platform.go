package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"vitta/backend/internal/calendar"
)

const (
	sourceLabel      = "com.google"
	reminderMethod   = "popup"
	fallbackCalendar = "primary"
)

// Platform exposes a Google account's calendars through calendar.Platform.
// Event ids handed out are "<calendarID>/<eventID>" so deletes need no lookup.
type Platform struct {
	svc *gcal.Service
	ts  oauth2.TokenSource

	mu    sync.Mutex
	token *oauth2.Token
}

// New builds a Platform. A nil token source means no account is linked and
// permissions report as restricted.
func New(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*Platform, error) {
	if ts != nil {
		opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	} else {
		opts = append([]option.ClientOption{option.WithoutAuthentication()}, opts...)
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google calendar service: %w", err)
	}
	return &Platform{svc: svc, ts: ts}, nil
}

// NewFromFiles reads an OAuth client credentials file and a stored token.
// A missing token file leaves the platform without a linked account.
func NewFromFiles(ctx context.Context, credentialsFile, tokenFile string) (*Platform, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read google credentials: %w", err)
	}
	cfg, err := googleoauth.ConfigFromJSON(b, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("parse google credentials: %w", err)
	}

	tok, err := readToken(tokenFile)
	if errors.Is(err, os.ErrNotExist) {
		return New(ctx, nil)
	}
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg.TokenSource(ctx, tok))
}

func readToken(path string) (*oauth2.Token, error) {
	if strings.TrimSpace(path) == "" {
		return nil, os.ErrNotExist
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tok oauth2.Token
	if err := json.NewDecoder(f).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode google token: %w", err)
	}
	return &tok, nil
}

func (p *Platform) CheckPermissions(ctx context.Context) (calendar.PermissionStatus, error) {
	if p.ts == nil {
		return calendar.PermissionRestricted, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token.Valid() {
		return calendar.PermissionAuthorized, nil
	}
	return calendar.PermissionUndetermined, nil
}

// RequestPermissions refreshes the account token.
func (p *Platform) RequestPermissions(ctx context.Context) (calendar.PermissionStatus, error) {
	if p.ts == nil {
		return calendar.PermissionRestricted, nil
	}
	tok, err := p.ts.Token()
	if err != nil || !tok.Valid() {
		return calendar.PermissionDenied, nil
	}
	p.mu.Lock()
	p.token = tok
	p.mu.Unlock()
	return calendar.PermissionAuthorized, nil
}

func (p *Platform) FindCalendars(ctx context.Context) ([]calendar.Descriptor, error) {
	var out []calendar.Descriptor
	err := p.svc.CalendarList.List().Pages(ctx, func(page *gcal.CalendarList) error {
		for _, item := range page.Items {
			out = append(out, toDescriptor(item))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Platform) SaveEvent(ctx context.Context, calendarID string, ev calendar.Event) (string, error) {
	created, err := p.svc.Events.Insert(calendarID, toGoogleEvent(ev)).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return eventRef(calendarID, created.Id), nil
}

func (p *Platform) RemoveEvent(ctx context.Context, ref string) error {
	calendarID, eventID := parseEventRef(ref)
	err := p.svc.Events.Delete(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		var gErr *googleapi.Error
		if errors.As(err, &gErr) && (gErr.Code == http.StatusNotFound || gErr.Code == http.StatusGone) {
			return calendar.ErrEventNotFound
		}
		return err
	}
	return nil
}

func toDescriptor(item *gcal.CalendarListEntry) calendar.Descriptor {
	owner := ""
	if strings.Contains(item.Id, "@") {
		owner = item.Id
	}
	return calendar.Descriptor{
		ID:           item.Id,
		Title:        item.Summary,
		Writable:     item.AccessRole == "owner" || item.AccessRole == "writer",
		Primary:      item.Primary,
		Source:       sourceLabel,
		OwnerAccount: owner,
	}
}

func toGoogleEvent(ev calendar.Event) *gcal.Event {
	overrides := make([]*gcal.EventReminder, 0, len(ev.Reminders))
	for _, d := range ev.Reminders {
		overrides = append(overrides, &gcal.EventReminder{
			Method:  reminderMethod,
			Minutes: int64(d / time.Minute),
		})
	}

	return &gcal.Event{
		Summary:     ev.Title,
		Description: ev.Notes,
		Start:       &gcal.EventDateTime{DateTime: ev.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: ev.End.Format(time.RFC3339)},
		Reminders: &gcal.EventReminders{
			UseDefault:      false,
			Overrides:       overrides,
			ForceSendFields: []string{"UseDefault"},
		},
	}
}

func eventRef(calendarID, eventID string) string {
	return calendarID + "/" + eventID
}

func parseEventRef(ref string) (string, string) {
	i := strings.LastIndex(ref, "/")
	if i <= 0 {
		return fallbackCalendar, ref
	}
	return ref[:i], ref[i+1:]
}
