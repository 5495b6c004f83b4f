// Package core defines the project bundle store abstraction shared by all
// storage drivers.
package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Driver identifies a storage backend
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local directory (default)
	DriverMemory     Driver = "memory" // in-process, tests
	DriverS3         Driver = "s3"     // S3 / MinIO compatible
	DriverSQLite     Driver = "sqlite" // single database file
)

// PutOptions specifies optional parameters for Put
type PutOptions struct {
	ContentType string
}

// Info describes a stored object
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is a flat key/value object store. Put overwrites existing keys.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

var (
	// ErrNotFound is returned when a key does not exist
	ErrNotFound = errors.New("storage: not found")
	// ErrUnsupported is returned for unknown drivers or capabilities
	ErrUnsupported = errors.New("storage: unsupported")
	// ErrInvalidKey is returned for empty keys or keys escaping the namespace
	ErrInvalidKey = errors.New("storage: invalid key")
)

// CleanKey validates a key and normalises it to slash separated form
func CleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: contains '..'", ErrInvalidKey)
	}
	if strings.HasPrefix(key, "/") || strings.HasPrefix(key, "\\") {
		return "", fmt.Errorf("%w: absolute key", ErrInvalidKey)
	}
	return path.Clean(strings.ReplaceAll(key, "\\", "/")), nil
}

// ETag returns the content hash used by drivers without native etags
func ETag(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
