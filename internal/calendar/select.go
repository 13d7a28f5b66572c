package calendar

import "strings"

// Descriptor is the platform's view of one calendar.
type Descriptor struct {
	ID           string
	Title        string
	Writable     bool
	Primary      bool
	Source       string
	OwnerAccount string
}

var gmailDomains = []string{"@gmail.com", "@googlemail.com"}

// IsGoogleCalendar reports whether d belongs to a Google account. Primary
// calendars count as Google calendars.
func IsGoogleCalendar(d Descriptor) bool {
	if d.Primary {
		return true
	}
	source := strings.ToLower(d.Source)
	if strings.Contains(source, "google") || strings.Contains(source, "com.google") {
		return true
	}
	owner := strings.ToLower(strings.TrimSpace(d.OwnerAccount))
	for _, domain := range gmailDomains {
		if strings.HasSuffix(owner, domain) {
			return true
		}
	}
	return false
}

// SelectWritableCalendar picks, in order: the writable primary calendar, a
// writable Google calendar, any writable calendar. Calendars without an id
// are never chosen.
func SelectWritableCalendar(calendars []Descriptor) (string, error) {
	rules := []func(Descriptor) bool{
		func(d Descriptor) bool { return d.Primary },
		IsGoogleCalendar,
		func(Descriptor) bool { return true },
	}
	for _, match := range rules {
		for _, c := range calendars {
			if c.ID == "" || !c.Writable {
				continue
			}
			if match(c) {
				return c.ID, nil
			}
		}
	}
	return "", ErrNoWritableCalendar
}
