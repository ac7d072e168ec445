// Package config loads gradlayer configuration files.
//
// A config file sets pipeline defaults, the result cache and the HTTP
// server. TOML is the primary format; YAML is accepted for deployments that
// already template YAML. The format is picked by file extension:
//
//	[layout]
//	variant = "acyclic"
//	direction = "forward"
//	width_fraction = 0.8
//
//	[layout.metrics]
//	char_width = 0.25
//	line_height = 0.5
//	padding = 0.2
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[server]
//	addr = ":8080"
//	store = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//
// Command-line flags override file values; file values override built-in
// defaults. A missing file at the default path is not an error.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/pipeline"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Layout stores.
const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

// Defaults for the server section.
const (
	DefaultAddr          = ":8080"
	DefaultMongoDatabase = "gradlayer"
	DefaultReadTimeout   = 15 * time.Second
	DefaultBodyLimit     = 8 << 20
)

// File is the complete configuration file.
type File struct {
	Layout pipeline.Options `toml:"layout" yaml:"layout"`
	Cache  Cache            `toml:"cache" yaml:"cache"`
	Server Server           `toml:"server" yaml:"server"`
	Log    Log              `toml:"log" yaml:"log"`
}

// Cache selects and configures the result cache.
type Cache struct {
	Backend  string `toml:"backend" yaml:"backend" validate:"omitempty,oneof=file redis none"`
	Dir      string `toml:"dir" yaml:"dir"`             // File backend; empty uses the XDG cache dir
	RedisURL string `toml:"redis_url" yaml:"redis_url"` // Redis backend
	Prefix   string `toml:"prefix" yaml:"prefix"`       // Key prefix for shared backends
}

// Server configures the HTTP API.
type Server struct {
	Addr            string        `toml:"addr" yaml:"addr"`
	Store           string        `toml:"store" yaml:"store" validate:"omitempty,oneof=memory mongo"`
	MongoURI        string        `toml:"mongo_uri" yaml:"mongo_uri" validate:"required_if=Store mongo"`
	MongoDatabase   string        `toml:"mongo_database" yaml:"mongo_database"`
	ReadTimeout     time.Duration `toml:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	BodyLimit       int64         `toml:"body_limit" yaml:"body_limit" validate:"gte=0"`
	MetricsDisabled bool          `toml:"metrics_disabled" yaml:"metrics_disabled"`
}

// Log configures the logger.
type Log struct {
	Level string `toml:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

var validate = validator.New()

// Default returns a configuration with every default applied.
func Default() File {
	var f File
	f.SetDefaults()
	return f
}

// SetDefaults fills zero-valued fields. Layout defaults are left to
// [pipeline.Options.SetDefaults] so that flags merged later still see zeros.
func (f *File) SetDefaults() {
	if f.Cache.Backend == "" {
		f.Cache.Backend = CacheFile
	}
	if f.Server.Addr == "" {
		f.Server.Addr = DefaultAddr
	}
	if f.Server.Store == "" {
		f.Server.Store = StoreMemory
	}
	if f.Server.MongoDatabase == "" {
		f.Server.MongoDatabase = DefaultMongoDatabase
	}
	if f.Server.ReadTimeout == 0 {
		f.Server.ReadTimeout = DefaultReadTimeout
	}
	if f.Server.BodyLimit == 0 {
		f.Server.BodyLimit = DefaultBodyLimit
	}
	if f.Log.Level == "" {
		f.Log.Level = "info"
	}
}

// Validate checks every section. The layout section is checked on a
// defaulted copy, so f.Layout keeps its zero values for later flag merging.
func (f *File) Validate() error {
	layout := f.Layout
	if err := layout.Validate(); err != nil {
		return err
	}
	for _, section := range []any{f.Cache, f.Server, f.Log} {
		if err := validate.Struct(section); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config")
		}
	}
	if f.Cache.Backend == CacheRedis && f.Cache.RedisURL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache backend redis requires redis_url")
	}
	return nil
}

// Load reads, defaults and validates the config file at path. TOML is read
// from ".toml" files and YAML from ".yaml" or ".yml" files; any other
// extension returns INVALID_CONFIG. A missing file returns NOT_FOUND.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return File{}, errors.Wrap(errors.ErrCodeNotFound, err, "config %s", path)
		}
		return File{}, errors.Wrap(errors.ErrCodeInternal, err, "read config %s", path)
	}
	f, err := Parse(data, Format(path))
	if err != nil {
		return File{}, errors.Wrap(errors.GetCode(err), err, "config %s", path)
	}
	return f, nil
}

// LoadDefault loads the config at [DefaultPath]. A missing file yields
// [Default] and no error.
func LoadDefault() (File, error) {
	path := DefaultPath()
	if path == "" {
		return Default(), nil
	}
	f, err := Load(path)
	if errors.Is(err, errors.ErrCodeNotFound) {
		return Default(), nil
	}
	return f, err
}

// Format returns "toml", "yaml" or "" for an unsupported extension.
func Format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml"
	case ".yaml", ".yml":
		return "yaml"
	}
	return ""
}

// Parse decodes data in the given format ("toml" or "yaml"), then applies
// defaults and validates. Unknown keys are rejected so typos surface.
func Parse(data []byte, format string) (File, error) {
	var f File
	switch format {
	case "toml":
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return File{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return File{}, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
		}
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && err != io.EOF {
			return File{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode yaml")
		}
	default:
		return File{}, errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (use .toml, .yaml or .yml)", format)
	}

	f.SetDefaults()
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/gradlayer/config.toml, falling back
// to ~/.config/gradlayer/config.toml. It returns "" when neither the
// variable nor a home directory is available.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "gradlayer", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gradlayer", "config.toml")
}
