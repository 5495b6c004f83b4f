// Package sqlite stores project bundles as rows in a single SQLite file.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	_ "modernc.org/sqlite"

	"github.com/philipparndt/gosprack/internal/storage/core"
)

const schema = `CREATE TABLE IF NOT EXISTS bundles (
	key          TEXT PRIMARY KEY,
	content_type TEXT NOT NULL DEFAULT '',
	etag         TEXT NOT NULL,
	size         INTEGER NOT NULL,
	data         BLOB NOT NULL,
	updated_at   INTEGER NOT NULL
)`

// Store keeps every object in the bundles table
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = "gosprack.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; also keeps ":memory:" to a single database
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Driver() core.Driver { return core.DriverSQLite }

func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	key, err := core.CleanKey(key)
	if err != nil {
		return core.Info{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, err
	}
	info := core.Info{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  opts.ContentType,
		ETag:         core.ETag(data),
		LastModified: time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO bundles (key, content_type, etag, size, data, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   content_type = excluded.content_type,
		   etag = excluded.etag,
		   size = excluded.size,
		   data = excluded.data,
		   updated_at = excluded.updated_at`,
		info.Key, info.ContentType, info.ETag, info.Size, data, info.LastModified.UnixNano())
	if err != nil {
		return core.Info{}, fmt.Errorf("failed to store %s: %w", key, err)
	}
	return info, nil
}

func (s *Store) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	key, err := core.CleanKey(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	var (
		info    core.Info
		data    []byte
		updated int64
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT content_type, etag, size, data, updated_at FROM bundles WHERE key = ?`, key)
	if err := row.Scan(&info.ContentType, &info.ETag, &info.Size, &data, &updated); err != nil {
		return core.Info{}, nil, notFound(key, err)
	}
	info.Key = key
	info.LastModified = time.Unix(0, updated).UTC()
	return info, io.NopCloser(bytes.NewReader(data)), nil
}

func (s *Store) Head(ctx context.Context, key string) (core.Info, error) {
	key, err := core.CleanKey(key)
	if err != nil {
		return core.Info{}, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT key, content_type, etag, size, updated_at FROM bundles WHERE key = ?`, key)
	info, err := scanInfo(row)
	if err != nil {
		return core.Info{}, notFound(key, err)
	}
	return info, nil
}

func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	key, err := core.CleanKey(key)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM bundles WHERE key = ?`, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, content_type, etag, size, updated_at FROM bundles
		 WHERE substr(key, 1, length(?)) = ? ORDER BY key`, prefix, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []core.Info
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInfo(sc scanner) (core.Info, error) {
	var (
		info    core.Info
		updated int64
	)
	if err := sc.Scan(&info.Key, &info.ContentType, &info.ETag, &info.Size, &updated); err != nil {
		return core.Info{}, err
	}
	info.LastModified = time.Unix(0, updated).UTC()
	return info, nil
}

func notFound(key string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	return err
}
