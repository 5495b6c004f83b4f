// Package config loads gosprack settings from YAML with environment overrides.
package config

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/philipparndt/gosprack/internal/storage"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "GOSPRACK_"

// Config holds all gosprack configuration
type Config struct {
	Layers  LayersConfig   `yaml:"layers"`
	Render  RenderConfig   `yaml:"render"`
	Colors  ColorsConfig   `yaml:"colors"`
	Storage storage.Config `yaml:"storage"`
	Server  ServerConfig   `yaml:"server"`
	Log     LogConfig      `yaml:"log"`
	Watch   WatchConfig    `yaml:"watch"`
}

// LayersConfig sets the defaults for new slices
type LayersConfig struct {
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	Thickness float64 `yaml:"thickness"`
	Count     int     `yaml:"count"`
	// MaxSize caps the raster width and height
	MaxSize int `yaml:"max_size"`
	// MaxCount caps evenly spaced layer creation
	MaxCount int `yaml:"max_count"`
	// MaxScale caps the preview and sprite sheet scale
	MaxScale int `yaml:"max_scale"`
	// MaxCanvas caps either edge of a generated preview or sheet
	MaxCanvas int `yaml:"max_canvas"`
}

// RenderConfig controls the offscreen renderer
type RenderConfig struct {
	ClearColor       string  `yaml:"clear_color"`
	DepthRange       float64 `yaml:"depth_range"`
	AmbientIntensity float64 `yaml:"ambient_intensity"`
}

// ColorsConfig holds the preview backgrounds
type ColorsConfig struct {
	Scene string `yaml:"scene"`
	Stack string `yaml:"stack"`
	PNG   string `yaml:"png"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.defaults()
	return cfg
}

func (c *Config) defaults() {
	if c.Layers.Width <= 0 {
		c.Layers.Width = 32
	}
	if c.Layers.Height <= 0 {
		c.Layers.Height = 32
	}
	if c.Layers.Thickness <= 0 {
		c.Layers.Thickness = 10
	}
	if c.Layers.Count <= 0 {
		c.Layers.Count = 8
	}
	if c.Layers.MaxSize <= 0 {
		c.Layers.MaxSize = 1024
	}
	if c.Layers.MaxCount <= 0 {
		c.Layers.MaxCount = 256
	}
	if c.Layers.MaxScale <= 0 {
		c.Layers.MaxScale = 16
	}
	if c.Layers.MaxCanvas <= 0 {
		c.Layers.MaxCanvas = 8192
	}
	if c.Render.ClearColor == "" {
		c.Render.ClearColor = "#00000000"
	}
	if c.Render.DepthRange <= 0 {
		c.Render.DepthRange = 500
	}
	if c.Render.AmbientIntensity <= 0 {
		c.Render.AmbientIntensity = 1
	}
	if c.Colors.Scene == "" {
		c.Colors.Scene = "#120d12"
	}
	if c.Colors.Stack == "" {
		c.Colors.Stack = "#0b080b"
	}
	if c.Colors.PNG == "" {
		c.Colors.PNG = "#3e3546"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "fs"
	}
	if c.Storage.FS.Root == "" {
		c.Storage.FS.Root = "./projects"
	}
	if c.Storage.SQLite.Path == "" {
		c.Storage.SQLite.Path = "gosprack.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = 500 * time.Millisecond
	}
}

// LoadConfigFile reads a YAML config file. Environment overrides and
// defaults are applied on top.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.applyEnv(os.LookupEnv)
	cfg.defaults()
	return cfg, nil
}

// Load reads path when it is set, otherwise starts from defaults
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadConfigFile(path)
	}
	cfg := &Config{}
	cfg.applyEnv(os.LookupEnv)
	cfg.defaults()
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("STORAGE_FS_ROOT", &c.Storage.FS.Root)
	str("STORAGE_S3_BUCKET", &c.Storage.S3.Bucket)
	str("STORAGE_S3_REGION", &c.Storage.S3.Region)
	str("STORAGE_S3_ENDPOINT", &c.Storage.S3.Endpoint)
	str("STORAGE_S3_ACCESS_KEY_ID", &c.Storage.S3.AccessKeyID)
	str("STORAGE_S3_SECRET_ACCESS_KEY", &c.Storage.S3.SecretAccessKey)
	str("STORAGE_SQLITE_PATH", &c.Storage.SQLite.Path)
	str("SERVER_ADDR", &c.Server.Addr)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup(EnvPrefix + "STORAGE_S3_PATH_STYLE"); ok {
		c.Storage.S3.PathStyle = strings.EqualFold(v, "true")
	}
	if v, ok := lookup(EnvPrefix + "LAYERS_WIDTH"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Layers.Width = n
		}
	}
	if v, ok := lookup(EnvPrefix + "LAYERS_HEIGHT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Layers.Height = n
		}
	}
}

// SlogLevel maps the configured level name
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseHexColor parses #rgb, #rrggbb or #rrggbbaa
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// MustColor parses a color and falls back to fallback on error
func MustColor(s string, fallback color.NRGBA) color.NRGBA {
	c, err := ParseHexColor(s)
	if err != nil {
		return fallback
	}
	return c
}
