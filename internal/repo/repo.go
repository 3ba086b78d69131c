// Package repo assembles a feature repository from its configuration:
// the credential binding, the object-store handle and every declared
// file source.
//
// Load does no network I/O. Reachability problems surface on the first
// Stat, Open, Download or Ping.
package repo

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/koustreak/featurerepo/internal/config"
	"github.com/koustreak/featurerepo/internal/datasource"
	"github.com/koustreak/featurerepo/internal/errs"
	"github.com/koustreak/featurerepo/internal/logger"
	"github.com/koustreak/featurerepo/internal/objectstore"
)

const maxConcurrentPings = 4

// Repo is a loaded feature repository. It is immutable after Load and safe
// for concurrent use.
type Repo struct {
	project string
	creds   *objectstore.Credentials
	fs      objectstore.FileSystem
	sources []*datasource.FileSource
	byName  map[string]*datasource.FileSource
	log     *logger.Logger
}

type options struct {
	lookup config.LookupFunc
	log    *logger.Logger
}

// Option customises Load.
type Option func(*options)

// WithLookup replaces os.LookupEnv as the source of the key pair.
func WithLookup(lookup config.LookupFunc) Option {
	return func(o *options) { o.lookup = lookup }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// Load builds every declared source and binds them to the configured store.
//
// Sources must have unique names, and every source's endpoint must name the
// same store as the credentials (scheme, host and port compared after
// default ports are filled in).
func Load(cfg *config.Config, opts ...Option) (*Repo, error) {
	if cfg == nil {
		return nil, errs.New(errs.ErrKindValidation, "configuration is required")
	}

	o := options{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Nop()
	}

	creds, err := cfg.Credentials(o.lookup)
	if err != nil {
		return nil, err
	}

	r := &Repo{
		project: cfg.Project,
		creds:   creds,
		sources: make([]*datasource.FileSource, 0, len(cfg.Sources)),
		byName:  make(map[string]*datasource.FileSource, len(cfg.Sources)),
		log:     o.log,
	}

	for i, decl := range cfg.Sources {
		src, err := datasource.New(decl.Options())
		if err != nil {
			return nil, fmt.Errorf("sources[%d] %q: %w", i, decl.Name, err)
		}

		if _, dup := r.byName[src.Name()]; dup {
			return nil, errs.Field(errs.ErrKindValidation, "name",
				fmt.Sprintf("duplicate source name %q", src.Name()))
		}

		if !src.EndpointOverride().SameAs(creds.Endpoint()) {
			return nil, errs.Field(errs.ErrKindEndpoint, "endpoint_override",
				fmt.Sprintf("source %q points at %s but credentials are bound to %s",
					src.Name(), src.EndpointOverride().Canonical(), creds.Endpoint().Canonical()))
		}

		r.sources = append(r.sources, src)
		r.byName[src.Name()] = src
	}

	fs, err := objectstore.NewFileSystem(creds)
	if err != nil {
		return nil, err
	}
	r.fs = fs

	r.log.With().
		Str("project", r.project).
		Str("provider", string(creds.Provider())).
		Str("endpoint", creds.Endpoint().String()).
		Bool("use_tls", creds.UseTLS()).
		Int("sources", len(r.sources)).
		Logger().
		Info("feature repository loaded")

	for _, src := range r.sources {
		r.log.ForSource(src.Name()).With().
			Str("path", src.StoragePath()).
			Str("format", string(src.FileFormat())).
			Str("timestamp_field", src.TimestampField()).
			Logger().
			Debug("registered data source")
	}

	return r, nil
}

func (r *Repo) Project() string                       { return r.project }
func (r *Repo) Credentials() *objectstore.Credentials { return r.creds }
func (r *Repo) FileSystem() objectstore.FileSystem    { return r.fs }

// Sources returns the declared sources in declaration order.
func (r *Repo) Sources() []*datasource.FileSource {
	out := make([]*datasource.FileSource, len(r.sources))
	copy(out, r.sources)
	return out
}

// Source looks up a declaration by name.
func (r *Repo) Source(name string) (*datasource.FileSource, bool) {
	src, ok := r.byName[name]
	return src, ok
}

// Lookup is Source returning a NotFound error for unknown names.
func (r *Repo) Lookup(name string) (*datasource.FileSource, error) {
	src, ok := r.byName[name]
	if !ok {
		return nil, errs.Field(errs.ErrKindNotFound, "name",
			fmt.Sprintf("no data source named %q", name))
	}
	return src, nil
}

// Stat returns metadata for the object backing the named source.
func (r *Repo) Stat(ctx context.Context, name string) (*objectstore.ObjectInfo, error) {
	src, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return r.fs.Stat(ctx, src.Path())
}

// Open streams the object backing the named source.
// The caller must close the returned Object.
func (r *Repo) Open(ctx context.Context, name string) (objectstore.Object, error) {
	src, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return r.fs.Open(ctx, src.Path())
}

// Download copies the object backing the named source to dst.
func (r *Repo) Download(ctx context.Context, name, dst string) (int64, error) {
	src, err := r.Lookup(name)
	if err != nil {
		return 0, err
	}

	n, err := r.fs.Download(ctx, src.Path(), dst)
	if err != nil {
		return 0, err
	}
	r.log.ForSource(name).InfoWith("downloaded data source", map[string]interface{}{
		"dst":   dst,
		"bytes": n,
	})
	return n, nil
}

// Ping checks every distinct bucket once. Buckets are probed concurrently;
// the first failure cancels the rest.
func (r *Repo) Ping(ctx context.Context) error {
	seen := make(map[string]struct{}, len(r.sources))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPings)

	for _, src := range r.sources {
		bucket := src.Path().Bucket
		if _, ok := seen[bucket]; ok {
			continue
		}
		seen[bucket] = struct{}{}

		g.Go(func() error {
			if err := r.fs.Ping(gCtx, bucket); err != nil {
				return fmt.Errorf("bucket %q: %w", bucket, err)
			}
			r.log.Debugf("bucket %q reachable", bucket)
			return nil
		})
	}
	return g.Wait()
}

// Close releases the object-store handle.
func (r *Repo) Close() error {
	if r.fs == nil {
		return nil
	}
	return r.fs.Close()
}
