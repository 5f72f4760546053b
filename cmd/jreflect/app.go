package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/dhamidi/jreflect/config"
	"github.com/dhamidi/jreflect/format"
	"github.com/dhamidi/jreflect/java/cache"
	"github.com/dhamidi/jreflect/java/scanner"
)

type app struct {
	cfg   *config.Config
	cache *cache.Cache
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if len(classPath) > 0 {
		cfg.ClassPath = append(append([]string(nil), classPath...), cfg.ClassPath...)
	}
	return cfg, nil
}

func newStore(cfg *config.Config) (cache.BlobStore, error) {
	switch cfg.Cache.Store {
	case config.StoreNone:
		return nil, nil
	case config.StoreS3:
		s3 := cfg.Cache.S3
		return cache.NewS3Store(cache.S3Config{
			Endpoint:  s3.Endpoint,
			Region:    s3.Region,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
			Bucket:    s3.Bucket,
			Prefix:    s3.Prefix,
			UseSSL:    s3.UseSSL,
		})
	default:
		return cache.NewFileStore(cfg.Cache.Dir)
	}
}

func cacheOptions(cfg *config.Config, store cache.BlobStore) cache.Options {
	return cache.Options{
		JavaVersion:     cfg.JavaVersion,
		Store:           store,
		Filter:          scanner.Filter{Allow: cfg.Allow},
		Workers:         cfg.Workers,
		IncludePrivate:  cfg.IncludePrivate,
		MemberCacheSize: cfg.Cache.MemberSize,
		MemberCacheTTL:  cfg.Cache.MemberTTL.Duration,
		FlushInterval:   cfg.Cache.FlushInterval.Duration,
	}
}

// openApp loads the configuration and indexes the class path.
func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	paths, err := cfg.ExpandClassPath()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("empty class path: pass -c or set classpath in the configuration")
	}
	store, err := newStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}

	c := cache.New(cacheOptions(cfg, store))
	for _, p := range paths {
		if err := c.AddContainer(p); err != nil {
			c.Close()
			return nil, fmt.Errorf("index %s: %w", p, err)
		}
	}
	return &app{cfg: cfg, cache: c}, nil
}

func (a *app) Close() {
	a.cache.Close()
}

func newEncoder(w io.Writer, name string) (format.Encoder, error) {
	switch name {
	case "line":
		return format.NewLineEncoder(w).WithColor(!color.NoColor), nil
	case "json":
		return format.NewJSONEncoder(w), nil
	case "java":
		return format.NewDeclarationEncoder(w), nil
	default:
		return nil, fmt.Errorf("unknown format: %s (expected line, json, or java)", name)
	}
}
