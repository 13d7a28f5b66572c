package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"vitta/backend/internal/store"
)

type documentRow struct {
	bun.BaseModel `bun:"table:appointment_documents"`

	Key       string    `bun:"doc_key,pk"`
	Payload   string    `bun:"payload,type:text,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func (d *documentRow) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
		d.UpdatedAt = now
	case *bun.UpdateQuery:
		d.UpdatedAt = now
	}
	return nil
}

// DocumentStore keeps keyed documents in the appointment_documents table.
type DocumentStore struct {
	db *bun.DB
}

func NewDocumentStore(db *bun.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*documentRow)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (s *DocumentStore) Load(ctx context.Context, key string) ([]byte, error) {
	var row documentRow
	err := s.db.NewSelect().
		Model(&row).
		Where("doc_key = ?", key).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(row.Payload), nil
}

func (s *DocumentStore) Mutate(ctx context.Context, key string, fn func(current []byte, found bool) ([]byte, error)) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.lockDocument(ctx, tx, key); err != nil {
			return err
		}

		var row documentRow
		found := true
		err := tx.NewSelect().
			Model(&row).
			Where("doc_key = ?", key).
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			found = false
		} else if err != nil {
			return err
		}

		var current []byte
		if found {
			current = []byte(row.Payload)
		}
		next, err := fn(current, found)
		if err != nil || next == nil {
			return err
		}

		row.Key = key
		row.Payload = string(next)
		_, err = tx.NewInsert().
			Model(&row).
			On("CONFLICT (doc_key) DO UPDATE").
			Set("payload = EXCLUDED.payload").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
}

// lockDocument serializes mutations of one key on Postgres, including the
// first write when no row exists yet. SQLite runs on a single connection.
func (s *DocumentStore) lockDocument(ctx context.Context, tx bun.Tx, key string) error {
	if s.db.Dialect().Name() != dialect.PG {
		return nil
	}
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", key).Exec(ctx)
	return err
}
