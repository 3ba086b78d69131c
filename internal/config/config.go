package config

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/koustreak/featurerepo/internal/datasource"
	"github.com/koustreak/featurerepo/internal/errs"
	"github.com/koustreak/featurerepo/internal/logger"
	"github.com/koustreak/featurerepo/internal/objectstore"
)

// Default environment variables holding the object-store key pair.
const (
	DefaultAccessKeyEnv = "FEATUREREPO_S3_ACCESS_KEY"
	DefaultSecretKeyEnv = "FEATUREREPO_S3_SECRET_KEY"
)

// Config is the root of a feature-repo file.
type Config struct {
	Project     string      `yaml:"project,omitempty"`
	Logging     Logging     `yaml:"logging,omitempty"`
	ObjectStore ObjectStore `yaml:"object_store"`
	Sources     []Source    `yaml:"sources"`
}

// Logging selects the log level and format.
type Logging struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error (default: info)
	Format string `yaml:"format,omitempty"` // json, console (default: json)
}

// Log levels and formats accepted by the schema.
var (
	LogLevels  = []string{"debug", "info", "warn", "error"}
	LogFormats = []string{"json", "console"}
)

// Validate checks level and format against LogLevels and LogFormats.
// Empty values are allowed and fall back to the defaults.
func (l Logging) Validate() error {
	if l.Level != "" && !slices.Contains(LogLevels, l.Level) {
		return errs.Field(errs.ErrKindValidation, "logging.level",
			fmt.Sprintf("log level %q must be one of %s", l.Level, strings.Join(LogLevels, ", ")))
	}
	if l.Format != "" && !slices.Contains(LogFormats, l.Format) {
		return errs.Field(errs.ErrKindValidation, "logging.format",
			fmt.Sprintf("log format %q must be one of %s", l.Format, strings.Join(LogFormats, ", ")))
	}
	return nil
}

// ObjectStore describes the S3-compatible store. Secrets are never stored
// here: the file names the environment variables that hold them.
type ObjectStore struct {
	Provider     string `yaml:"provider,omitempty"` // minio (default), s3
	Endpoint     string `yaml:"endpoint"`
	UseTLS       bool   `yaml:"use_tls,omitempty"`
	Region       string `yaml:"region,omitempty"`
	PathStyle    bool   `yaml:"path_style,omitempty"`
	AccessKeyEnv string `yaml:"access_key_env,omitempty"`
	SecretKeyEnv string `yaml:"secret_key_env,omitempty"`
}

// Source is one file data-source declaration.
type Source struct {
	Name                   string            `yaml:"name"`
	Path                   string            `yaml:"path,omitempty"`
	Bucket                 string            `yaml:"bucket,omitempty"`
	Key                    string            `yaml:"key,omitempty"`
	EndpointOverride       string            `yaml:"endpoint_override,omitempty"` // defaults to object_store.endpoint
	TimestampField         string            `yaml:"timestamp_field"`
	CreatedTimestampColumn string            `yaml:"created_timestamp_column"`
	Description            string            `yaml:"description"`
	Owner                  string            `yaml:"owner"`
	FileFormat             string            `yaml:"file_format,omitempty"`
	FieldMapping           map[string]string `yaml:"field_mapping,omitempty"`
	Tags                   map[string]string `yaml:"tags,omitempty"`
}

// LookupFunc reads an environment variable. os.LookupEnv is the default.
type LookupFunc func(key string) (string, bool)

// Default returns the driver statistics repository served from the
// in-cluster MinIO.
func Default() *Config {
	cfg := &Config{
		Project: "driver_ranking",
		ObjectStore: ObjectStore{
			Provider: string(objectstore.ProviderMinIO),
			Endpoint: "http://minio.kubeflow:9000",
			UseTLS:   false,
		},
		Sources: []Source{
			{
				Name:                   "driver_stats_source",
				Path:                   "s3://featurestore/infra/driver_stats.parquet",
				TimestampField:         "event_timestamp",
				CreatedTimestampColumn: "created",
				Description:            "A table describing the stats of a driver based on hourly logs",
				Owner:                  "test2@gmail.com",
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every optional field that was left empty.
func (c *Config) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	store := &c.ObjectStore
	if store.Provider == "" {
		store.Provider = string(objectstore.ProviderMinIO)
	}
	if store.Region == "" {
		store.Region = objectstore.DefaultRegion
	}
	if store.AccessKeyEnv == "" {
		store.AccessKeyEnv = DefaultAccessKeyEnv
	}
	if store.SecretKeyEnv == "" {
		store.SecretKeyEnv = DefaultSecretKeyEnv
	}

	for i := range c.Sources {
		src := &c.Sources[i]
		if src.EndpointOverride == "" {
			src.EndpointOverride = store.Endpoint
		}
		if src.FileFormat == "" {
			src.FileFormat = string(datasource.FormatParquet)
		}
	}
}

// Credentials reads the key pair from the environment and binds it to the
// configured endpoint. A nil lookup uses os.LookupEnv.
func (c *Config) Credentials(lookup LookupFunc) (*objectstore.Credentials, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	store := c.ObjectStore
	access, ok := lookup(store.AccessKeyEnv)
	if !ok || strings.TrimSpace(access) == "" {
		return nil, errs.Field(errs.ErrKindCredential, "access_key",
			"environment variable "+store.AccessKeyEnv+" is not set or empty")
	}
	secret, ok := lookup(store.SecretKeyEnv)
	if !ok || strings.TrimSpace(secret) == "" {
		return nil, errs.Field(errs.ErrKindCredential, "secret_key",
			"environment variable "+store.SecretKeyEnv+" is not set or empty")
	}

	return objectstore.NewCredentials(access, secret, store.Endpoint, store.UseTLS,
		objectstore.WithProvider(objectstore.Provider(store.Provider)),
		objectstore.WithRegion(store.Region),
		objectstore.WithPathStyle(store.PathStyle),
	)
}

// LoggerConfig returns the logger settings for this repo writing to out.
func (c *Config) LoggerConfig(out io.Writer) *logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = c.Logging.Level
	cfg.Format = c.Logging.Format
	if out != nil {
		cfg.Output = out
	}
	return cfg
}

// Options converts the declaration into datasource constructor input.
func (s Source) Options() datasource.Options {
	return datasource.Options{
		Name:                   s.Name,
		Path:                   s.Path,
		Bucket:                 s.Bucket,
		Key:                    s.Key,
		EndpointOverride:       s.EndpointOverride,
		TimestampField:         s.TimestampField,
		CreatedTimestampColumn: s.CreatedTimestampColumn,
		Description:            s.Description,
		Owner:                  s.Owner,
		FileFormat:             datasource.FileFormat(s.FileFormat),
		FieldMapping:           s.FieldMapping,
		Tags:                   s.Tags,
	}
}
