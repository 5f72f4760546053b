// Package config loads jreflect settings from an optional TOML file, a .env
// file and JREFLECT_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const envPrefix = "JREFLECT_"

type Config struct {
	// ClassPath lists containers in lookup order. Entries may be globs such
	// as "lib/*.jar".
	ClassPath   []string `toml:"classpath"`
	Allow       []string `toml:"allow"`
	JavaVersion string   `toml:"java_version"`
	Workers     int      `toml:"workers"`
	// IncludePrivate keeps private members in reflection results.
	IncludePrivate bool `toml:"include_private"`

	Cache CacheConfig `toml:"cache"`
}

type CacheConfig struct {
	Dir           string   `toml:"dir"`
	Store         string   `toml:"store"`
	FlushInterval Duration `toml:"flush_interval"`
	MemberSize    int      `toml:"member_size"`
	MemberTTL     Duration `toml:"member_ttl"`
	S3            S3Config `toml:"s3"`
}

type S3Config struct {
	Endpoint  string `toml:"endpoint"`
	Region    string `toml:"region"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	Prefix    string `toml:"prefix"`
	UseSSL    bool   `toml:"use_ssl"`
}

const (
	StoreFile = "file"
	StoreS3   = "s3"
	StoreNone = "none"
)

// Duration decodes TOML strings like "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func Default() *Config {
	return &Config{
		JavaVersion: "17",
		Cache: CacheConfig{
			Dir:           defaultCacheDir(),
			Store:         StoreFile,
			FlushInterval: Duration{5 * time.Second},
			MemberSize:    256,
			MemberTTL:     Duration{30 * time.Minute},
		},
	}
}

func defaultCacheDir() string {
	base := strings.TrimSpace(os.Getenv("XDG_CACHE_HOME"))
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "jreflect")
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "jreflect")
}

// Load reads path when it is non-empty. A missing .env file is ignored.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + name))
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, string(os.PathListSeparator)) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) applyEnv() error {
	if v := env("CLASSPATH"); v != "" {
		c.ClassPath = splitList(v)
	}
	if v := env("ALLOW"); v != "" {
		c.Allow = strings.Split(v, ",")
	}
	if v := env("JAVA_VERSION"); v != "" {
		c.JavaVersion = v
	}
	if v := env("CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}
	if v := env("STORE"); v != "" {
		c.Cache.Store = v
	}
	if v := env("INCLUDE_PRIVATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sINCLUDE_PRIVATE: %w", envPrefix, err)
		}
		c.IncludePrivate = b
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"WORKERS", &c.Workers},
		{"MEMBER_CACHE_SIZE", &c.Cache.MemberSize},
	}
	for _, i := range ints {
		if v := env(i.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, i.name, err)
			}
			*i.dst = n
		}
	}

	durations := []struct {
		name string
		dst  *Duration
	}{
		{"FLUSH_INTERVAL", &c.Cache.FlushInterval},
		{"MEMBER_CACHE_TTL", &c.Cache.MemberTTL},
	}
	for _, d := range durations {
		if v := env(d.name); v != "" {
			if err := d.dst.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, d.name, err)
			}
		}
	}

	s3 := &c.Cache.S3
	if v := env("S3_ENDPOINT"); v != "" {
		s3.Endpoint = v
	}
	if v := env("S3_REGION"); v != "" {
		s3.Region = v
	}
	if v := env("S3_ACCESS_KEY"); v != "" {
		s3.AccessKey = v
	}
	if v := env("S3_SECRET_KEY"); v != "" {
		s3.SecretKey = v
	}
	if v := env("S3_BUCKET"); v != "" {
		s3.Bucket = v
	}
	if v := env("S3_PREFIX"); v != "" {
		s3.Prefix = v
	}
	if v := env("S3_USE_SSL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sS3_USE_SSL: %w", envPrefix, err)
		}
		s3.UseSSL = b
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Cache.Store {
	case StoreFile, StoreNone:
	case StoreS3:
		if c.Cache.S3.Endpoint == "" || c.Cache.S3.Bucket == "" {
			return errors.New("s3 store needs an endpoint and a bucket")
		}
	default:
		return fmt.Errorf("unknown cache store %q", c.Cache.Store)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// ExpandClassPath resolves glob entries. Literal entries are kept even when
// they do not exist so that opening them reports the error.
func (c *Config) ExpandClassPath() ([]string, error) {
	var out []string
	for _, entry := range c.ClassPath {
		if !strings.ContainsAny(entry, "*?[") {
			out = append(out, entry)
			continue
		}
		matches, err := filepath.Glob(entry)
		if err != nil {
			return nil, fmt.Errorf("classpath entry %s: %w", entry, err)
		}
		out = append(out, matches...)
	}
	return out, nil
}
