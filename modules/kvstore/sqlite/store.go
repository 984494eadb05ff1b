package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/flemzord/newsclaw/internal/kvstore"
)

// collectionStore implements kvstore.Store for one collection.
type collectionStore struct {
	db   *sql.DB
	name string
}

func (s *collectionStore) Load(ctx context.Context, key string) (kvstore.Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM records WHERE collection = ? AND key = ?", s.name, key,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kvstore.ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: load %s/%s: %w", s.name, key, err)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var rec kvstore.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("sqlite: decode %s/%s: %w", s.name, key, err)
	}
	return rec, nil
}

func (s *collectionStore) Create(ctx context.Context, key string, rec kvstore.Record) error {
	data, err := encode(rec)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO records (collection, key, data) VALUES (?, ?, ?)
		ON CONFLICT (collection, key) DO NOTHING`,
		s.name, key, data,
	)
	if err != nil {
		return fmt.Errorf("sqlite: create %s/%s: %w", s.name, key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: create %s/%s: %w", s.name, key, err)
	}
	if n == 0 {
		return kvstore.ErrExists
	}
	return nil
}

func (s *collectionStore) Put(ctx context.Context, key string, rec kvstore.Record) error {
	data, err := encode(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (collection, key, data) VALUES (?, ?, ?)
		ON CONFLICT (collection, key) DO UPDATE SET
			data = excluded.data,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')`,
		s.name, key, data,
	)
	if err != nil {
		return fmt.Errorf("sqlite: put %s/%s: %w", s.name, key, err)
	}
	return nil
}

func encode(rec kvstore.Record) (string, error) {
	if rec == nil {
		return "{}", nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("sqlite: encode record: %w", err)
	}
	return string(data), nil
}

// PurgeBefore deletes records of collection last written before cutoff.
func (m *Module) PurgeBefore(ctx context.Context, collection string, cutoff time.Time) (int64, error) {
	res, err := m.db.ExecContext(ctx,
		"DELETE FROM records WHERE collection = ? AND updated_at < ?",
		collection, cutoff.UTC().Format(timestampFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: purge %s: %w", collection, err)
	}
	return res.RowsAffected()
}
