// Package objectstore binds credentials to an S3-compatible endpoint and
// resolves s3:// URIs against it.
//
// Providers (MinIO, AWS SDK) implement FileSystem and register themselves
// from init. Callers depend only on this package and blank-import the
// providers they want available.
//
// Usage:
//
//	import _ "github.com/koustreak/featurerepo/internal/objectstore/minio"
//
//	creds, err := objectstore.NewCredentials(accessKey, secretKey, "http://minio.kubeflow:9000", false)
//	if err != nil { ... }
//	fs, err := objectstore.NewFileSystem(creds)
//	if err != nil { ... }
//	defer fs.Close()
//
//	uri, _ := objectstore.ParseURI("s3://featurestore/infra/driver_stats.parquet")
//	info, err := fs.Stat(ctx, uri)
package objectstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/koustreak/featurerepo/internal/errs"
)

// FileSystem is the handle consumers use to read declared objects.
// Construction is inert: the first network round-trip happens on the first
// call below, and failures surface there as read-time errors.
type FileSystem interface {
	// Provider reports which client library backs this handle.
	Provider() Provider

	// Endpoint returns the store this handle talks to.
	Endpoint() *Endpoint

	// Ping verifies the store is reachable and bucket exists.
	Ping(ctx context.Context, bucket string) error

	// Stat returns metadata for the object without downloading it.
	Stat(ctx context.Context, uri URI) (*ObjectInfo, error)

	// Open returns a streaming handle to the object.
	// The caller MUST call Object.Close() after reading.
	Open(ctx context.Context, uri URI) (Object, error)

	// Download copies the object to the local file dst and returns the bytes written.
	Download(ctx context.Context, uri URI, dst string) (int64, error)

	// Close releases any held resources.
	Close() error
}

// Constructor builds a FileSystem for validated credentials.
type Constructor func(creds *Credentials) (FileSystem, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[Provider]Constructor)
)

// Register makes a provider available to NewFileSystem.
// Registering the same provider twice replaces the previous constructor.
func Register(p Provider, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[p] = ctor
}

// Providers lists registered providers in sorted order.
func Providers() []Provider {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Provider, 0, len(registry))
	for p := range registry {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NewFileSystem returns the handle for creds using the registered provider.
func NewFileSystem(creds *Credentials) (FileSystem, error) {
	if creds == nil {
		return nil, errs.New(errs.ErrKindCredential, "credentials are required")
	}

	registryMu.RLock()
	ctor, ok := registry[creds.Provider()]
	registryMu.RUnlock()
	if !ok {
		var names []string
		for _, p := range Providers() {
			names = append(names, string(p))
		}
		return nil, errs.Field(errs.ErrKindValidation, "provider",
			"no object-store driver registered for "+quote(string(creds.Provider()))+
				" (registered: "+strings.Join(names, ", ")+")")
	}
	return ctor(creds)
}
