package calendar

import (
	"errors"
	"testing"
)

func TestSelectWritableCalendar_PrimaryOutranksGoogle(t *testing.T) {
	got, err := SelectWritableCalendar([]Descriptor{
		{ID: "a", Primary: false, Writable: true, Source: "google"},
		{ID: "b", Primary: true, Writable: true, Source: "other"},
	})
	if err != nil {
		t.Fatalf("SelectWritableCalendar error: %v", err)
	}
	if got != "b" {
		t.Fatalf("calendar = %q, want %q", got, "b")
	}
}

func TestSelectWritableCalendar_GoogleOnly(t *testing.T) {
	got, err := SelectWritableCalendar([]Descriptor{
		{ID: "c", Primary: false, Writable: true, Source: "google"},
	})
	if err != nil {
		t.Fatalf("SelectWritableCalendar error: %v", err)
	}
	if got != "c" {
		t.Fatalf("calendar = %q, want %q", got, "c")
	}
}

func TestSelectWritableCalendar_NoWritable(t *testing.T) {
	_, err := SelectWritableCalendar([]Descriptor{
		{ID: "ro", Primary: true, Writable: false, Source: "com.google"},
		{ID: "ro2", Writable: false},
	})
	if !errors.Is(err, ErrNoWritableCalendar) {
		t.Fatalf("error = %v, want %v", err, ErrNoWritableCalendar)
	}

	_, err = SelectWritableCalendar(nil)
	if !errors.Is(err, ErrNoWritableCalendar) {
		t.Fatalf("error = %v, want %v", err, ErrNoWritableCalendar)
	}
}

func TestSelectWritableCalendar_Priorities(t *testing.T) {
	tests := []struct {
		name      string
		calendars []Descriptor
		want      string
	}{
		{
			name: "read-only primary skipped for google",
			calendars: []Descriptor{
				{ID: "local", Writable: true, Source: "local"},
				{ID: "primary", Primary: true, Writable: false},
				{ID: "gmail", Writable: true, OwnerAccount: "Someone@Gmail.com"},
			},
			want: "gmail",
		},
		{
			name: "fallback to any writable",
			calendars: []Descriptor{
				{ID: "holidays", Writable: false, Source: "com.google"},
				{ID: "exchange", Writable: true, Source: "Exchange", OwnerAccount: "me@corp.example"},
			},
			want: "exchange",
		},
		{
			name: "empty id ignored",
			calendars: []Descriptor{
				{ID: "", Primary: true, Writable: true},
				{ID: "x", Writable: true},
			},
			want: "x",
		},
		{
			name: "com.google source",
			calendars: []Descriptor{
				{ID: "icloud", Writable: true, Source: "iCloud"},
				{ID: "acct", Writable: true, Source: "com.google"},
			},
			want: "acct",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectWritableCalendar(tt.calendars)
			if err != nil {
				t.Fatalf("SelectWritableCalendar error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("calendar = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsGoogleCalendar(t *testing.T) {
	tests := []struct {
		name string
		d    Descriptor
		want bool
	}{
		{name: "primary", d: Descriptor{Primary: true}, want: true},
		{name: "google source", d: Descriptor{Source: "Google"}, want: true},
		{name: "android account type", d: Descriptor{Source: "com.google"}, want: true},
		{name: "gmail owner", d: Descriptor{OwnerAccount: "nutri@gmail.com"}, want: true},
		{name: "googlemail owner", d: Descriptor{OwnerAccount: "nutri@googlemail.com"}, want: true},
		{name: "gmail in the middle", d: Descriptor{OwnerAccount: "nutri@gmail.com.example"}, want: false},
		{name: "local", d: Descriptor{Source: "local", OwnerAccount: "device"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsGoogleCalendar(tt.d); got != tt.want {
				t.Fatalf("IsGoogleCalendar = %v, want %v", got, tt.want)
			}
		})
	}
}
