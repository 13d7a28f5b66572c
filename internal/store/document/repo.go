package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vitta/backend/internal/domain"
	"vitta/backend/internal/store"
)

// Backend stores one opaque document per key.
type Backend interface {
	// Load returns store.ErrNotFound when the key holds no document.
	Load(ctx context.Context, key string) ([]byte, error)
	// Mutate runs fn against the current document and writes its result in the
	// same atomic step. A nil result leaves the stored document untouched.
	Mutate(ctx context.Context, key string, fn func(current []byte, found bool) ([]byte, error)) error
}

// Repo keeps the whole appointment list as a single JSON document, the way
// the mobile client persisted it under one storage key.
type Repo struct {
	backend Backend
	key     string
	seed    func(now time.Time) []domain.Appointment
	now     func() time.Time
	log     *slog.Logger
}

type Option func(*Repo)

func WithClock(now func() time.Time) Option {
	return func(r *Repo) { r.now = now }
}

func WithSeed(seed func(now time.Time) []domain.Appointment) Option {
	return func(r *Repo) { r.seed = seed }
}

func NewRepo(backend Backend, key string, log *slog.Logger, opts ...Option) *Repo {
	if key == "" {
		key = store.DefaultAppointmentsKey
	}
	if log == nil {
		log = slog.Default()
	}
	r := &Repo{
		backend: backend,
		key:     key,
		seed:    DefaultAppointments,
		now:     time.Now,
		log:     log.With(slog.String("component", "store.document"), slog.String("key", key)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repo) List(ctx context.Context) ([]domain.Appointment, error) {
	b, err := r.backend.Load(ctx, r.key)
	if err == nil {
		return decode(b)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	var out []domain.Appointment
	err = r.backend.Mutate(ctx, r.key, func(current []byte, found bool) ([]byte, error) {
		if found {
			list, err := decode(current)
			out = list
			return nil, err
		}
		out = r.seed(r.now())
		r.log.Info("appointments seeded", slog.Int("count", len(out)))
		return encode(out)
	})
	if err != nil {
		return nil, fmt.Errorf("seed appointments: %w", err)
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, id string) (domain.Appointment, error) {
	list, err := r.List(ctx)
	if err != nil {
		return domain.Appointment{}, err
	}
	for _, a := range list {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Appointment{}, fmt.Errorf("appointment %s: %w", id, store.ErrNotFound)
}

func (r *Repo) Upsert(ctx context.Context, appt domain.Appointment) error {
	err := r.backend.Mutate(ctx, r.key, func(current []byte, found bool) ([]byte, error) {
		list := r.seed(r.now())
		if found {
			decoded, err := decode(current)
			if err != nil {
				return nil, err
			}
			list = decoded
		}

		replaced := false
		for i := range list {
			if list[i].ID == appt.ID {
				list[i] = appt
				replaced = true
				break
			}
		}
		if !replaced {
			list = append(list, appt)
		}
		return encode(list)
	})
	if err != nil {
		return fmt.Errorf("upsert appointment %s: %w", appt.ID, err)
	}
	return nil
}

func (r *Repo) Reset(ctx context.Context) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := r.backend.Mutate(ctx, r.key, func(current []byte, found bool) ([]byte, error) {
		out = r.seed(r.now())
		return encode(out)
	})
	if err != nil {
		return nil, fmt.Errorf("reset appointments: %w", err)
	}
	r.log.Info("appointments reset", slog.Int("count", len(out)))
	return out, nil
}

func decode(b []byte) ([]domain.Appointment, error) {
	var list []domain.Appointment
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("decode appointments document: %w", err)
	}
	if list == nil {
		list = []domain.Appointment{}
	}
	return list, nil
}

func encode(list []domain.Appointment) ([]byte, error) {
	if list == nil {
		list = []domain.Appointment{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("encode appointments document: %w", err)
	}
	return b, nil
}
