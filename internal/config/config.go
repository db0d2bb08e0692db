// Package config loads guardar CLI settings from the environment.
package config

import (
	"context"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	"github.com/201flaviosilva/guardar"
	"github.com/201flaviosilva/guardar/filestore"
	"github.com/201flaviosilva/guardar/s3store"
	"github.com/201flaviosilva/guardar/sqlitestore"
)

const prefix = "GUARDAR"

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
)

// Config is read from GUARDAR_* variables, e.g. GUARDAR_ROOT_KEY and
// GUARDAR_S3_BUCKET.
type Config struct {
	Backend string `split_words:"true" default:"file"`
	RootKey string `split_words:"true" default:"guardar"`
	Path    string `split_words:"true" default:"~/.local/share/guardar"`
	LogTag  string `split_words:"true"`

	S3 S3Config
}

type S3Config struct {
	Endpoint        string `split_words:"true"`
	Region          string `split_words:"true" default:"us-east-1"`
	Bucket          string `split_words:"true"`
	Prefix          string `split_words:"true"`
	AccessKeyID     string `split_words:"true"`
	SecretAccessKey string `split_words:"true"`
	SessionToken    string `split_words:"true"`
	DisableSSL      bool   `split_words:"true"`
	ForcePathStyle  bool   `split_words:"true"`
}

// Load reads envFile when it exists, then the GUARDAR_* environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, errors.Wrapf(err, "load %s", envFile)
		}
	}

	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "process environment")
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	return cfg, nil
}

// OpenBackend constructs the configured backend. The returned close function
// is never nil.
func (c Config) OpenBackend(ctx context.Context) (guardar.Backend, func() error, error) {
	noop := func() error { return nil }
	if err := ctx.Err(); err != nil {
		return nil, noop, err
	}

	switch c.Backend {
	case BackendMemory:
		return guardar.NewMemory(), noop, nil
	case BackendFile, "":
		s, err := filestore.New(c.Path)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case BackendSQLite:
		s, err := sqlitestore.Open(c.Path)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case BackendS3:
		s, err := s3store.New(s3store.Options{
			Endpoint:        c.S3.Endpoint,
			Region:          c.S3.Region,
			DisableSSL:      c.S3.DisableSSL,
			ForcePathStyle:  c.S3.ForcePathStyle,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
			SessionToken:    c.S3.SessionToken,
			Bucket:          c.S3.Bucket,
			Prefix:          c.S3.Prefix,
		})
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	}
	return nil, noop, errors.Errorf("unknown backend %q (want memory, file, sqlite or s3)", c.Backend)
}
