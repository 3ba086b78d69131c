// Package minio provides a MinIO implementation of objectstore.FileSystem.
// It registers itself as objectstore.ProviderMinIO.
//
// Usage:
//
//	creds, _ := objectstore.NewCredentials(key, secret, "http://minio.kubeflow:9000", false)
//	fs, err := minio.New(creds)
//	if err != nil { ... }
//	defer fs.Close()
//
//	info, err := fs.Stat(ctx, uri)
package minio

import (
	"context"
	"os"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/koustreak/featurerepo/internal/errs"
	"github.com/koustreak/featurerepo/internal/objectstore"
)

func init() {
	objectstore.Register(objectstore.ProviderMinIO, func(creds *objectstore.Credentials) (objectstore.FileSystem, error) {
		return New(creds)
	})
}

// Driver is a MinIO implementation of objectstore.FileSystem.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	client *miniogo.Client
	creds  *objectstore.Credentials
}

// New builds the MinIO client for creds. It does not contact the server;
// use Ping for that.
func New(creds *objectstore.Credentials) (*Driver, error) {
	client, err := miniogo.New(creds.Endpoint().Host(), &miniogo.Options{
		Creds:  credentials.NewStaticV4(creds.AccessKey(), creds.SecretKey(), ""),
		Secure: creds.UseTLS(),
		Region: creds.Region(),
	})
	if err != nil {
		return nil, errs.WrapField(errs.ErrKindEndpoint, "endpoint_url", "failed to create minio client", err)
	}

	return &Driver{client: client, creds: creds}, nil
}

// --- objectstore.FileSystem implementation ---

func (d *Driver) Provider() objectstore.Provider {
	return objectstore.ProviderMinIO
}

func (d *Driver) Endpoint() *objectstore.Endpoint {
	return d.creds.Endpoint()
}

// Ping verifies the server is reachable and bucket exists.
func (d *Driver) Ping(ctx context.Context, bucket string) error {
	ok, err := d.client.BucketExists(ctx, bucket)
	if err != nil {
		return mapError(err, "ping failed")
	}
	if !ok {
		return errs.New(errs.ErrKindNotFound, "bucket "+bucket+" does not exist")
	}
	return nil
}

// Close is a no-op for MinIO: the SDK client holds no persistent connections.
func (d *Driver) Close() error {
	return nil
}

// Stat returns metadata for the object without downloading its content.
func (d *Driver) Stat(ctx context.Context, uri objectstore.URI) (*objectstore.ObjectInfo, error) {
	stat, err := d.client.StatObject(ctx, uri.Bucket, uri.Key, miniogo.StatObjectOptions{})
	if err != nil {
		return nil, mapError(err, "failed to stat "+uri.String())
	}
	return toInfo(uri, stat), nil
}

// Open opens a streaming handle to the object.
// The caller MUST call Object.Close() after reading.
func (d *Driver) Open(ctx context.Context, uri objectstore.URI) (objectstore.Object, error) {
	obj, err := d.client.GetObject(ctx, uri.Bucket, uri.Key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err, "failed to get "+uri.String())
	}

	// GetObject is lazy; Stat forces the request so missing objects fail here.
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, mapError(err, "failed to stat "+uri.String()+" after get")
	}

	return objectstore.NewObject(obj, toInfo(uri, stat)), nil
}

// Download writes the object to dst and returns its size.
func (d *Driver) Download(ctx context.Context, uri objectstore.URI, dst string) (int64, error) {
	if err := d.client.FGetObject(ctx, uri.Bucket, uri.Key, dst, miniogo.GetObjectOptions{}); err != nil {
		return 0, mapError(err, "failed to download "+uri.String())
	}

	fi, err := os.Stat(dst)
	if err != nil {
		return 0, errs.Wrap(errs.ErrKindUnknown, "downloaded file missing", err)
	}
	return fi.Size(), nil
}

func toInfo(uri objectstore.URI, stat miniogo.ObjectInfo) *objectstore.ObjectInfo {
	return &objectstore.ObjectInfo{
		URI:          uri,
		Size:         stat.Size,
		ContentType:  stat.ContentType,
		ETag:         stat.ETag,
		LastModified: stat.LastModified,
	}
}
