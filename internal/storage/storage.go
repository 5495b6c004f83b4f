// Package storage selects a project bundle store from configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/philipparndt/gosprack/internal/storage/core"
	"github.com/philipparndt/gosprack/internal/storage/fs"
	"github.com/philipparndt/gosprack/internal/storage/memory"
	"github.com/philipparndt/gosprack/internal/storage/s3"
	"github.com/philipparndt/gosprack/internal/storage/sqlite"
)

// Config selects and configures a driver
type Config struct {
	Driver string       `yaml:"driver"`
	FS     FSConfig     `yaml:"fs"`
	S3     S3Config     `yaml:"s3"`
	SQLite SQLiteConfig `yaml:"sqlite"`
}

type FSConfig struct {
	Root string `yaml:"root"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Open returns the store for cfg.Driver. An empty driver selects fs.
func Open(ctx context.Context, cfg Config) (core.Store, error) {
	driver := core.Driver(cfg.Driver)
	if driver == "" {
		driver = core.DriverFilesystem
	}
	switch driver {
	case core.DriverFilesystem:
		return fs.New(cfg.FS.Root)
	case core.DriverMemory:
		return memory.New(), nil
	case core.DriverS3:
		return s3.New(ctx, s3.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.PathStyle,
		})
	case core.DriverSQLite:
		return sqlite.Open(ctx, cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("%w: storage driver %q", core.ErrUnsupported, cfg.Driver)
	}
}
