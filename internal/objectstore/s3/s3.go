// Package s3 provides an AWS SDK v2 implementation of objectstore.FileSystem.
// It registers itself as objectstore.ProviderS3 and works against AWS and
// S3-compatible stores such as MinIO or LocalStack.
package s3

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/koustreak/featurerepo/internal/errs"
	"github.com/koustreak/featurerepo/internal/objectstore"
)

func init() {
	objectstore.Register(objectstore.ProviderS3, func(creds *objectstore.Credentials) (objectstore.FileSystem, error) {
		return New(creds)
	})
}

// Backend is an S3 implementation of objectstore.FileSystem.
// It is safe for concurrent use by multiple goroutines.
type Backend struct {
	client     *s3.Client
	downloader *manager.Downloader
	creds      *objectstore.Credentials
}

// New builds the S3 client for creds. Options are set explicitly so no
// shared config files or environment are read and no request is made.
func New(creds *objectstore.Credentials) (*Backend, error) {
	client := s3.New(s3.Options{
		Region: creds.Region(),
		Credentials: credentials.NewStaticCredentialsProvider(
			creds.AccessKey(),
			creds.SecretKey(),
			"",
		),
		BaseEndpoint: aws.String(creds.Endpoint().WithScheme(creds.TransportScheme())),
		UsePathStyle: creds.PathStyle(),
	})

	return &Backend{
		client:     client,
		downloader: manager.NewDownloader(client),
		creds:      creds,
	}, nil
}

func (b *Backend) Provider() objectstore.Provider {
	return objectstore.ProviderS3
}

func (b *Backend) Endpoint() *objectstore.Endpoint {
	return b.creds.Endpoint()
}

// Ping checks that bucket exists and the credentials can reach it.
func (b *Backend) Ping(ctx context.Context, bucket string) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close is a no-op for S3
func (b *Backend) Close() error {
	return nil
}

// Stat returns metadata about an object
func (b *Backend) Stat(ctx context.Context, uri objectstore.URI) (*objectstore.ObjectInfo, error) {
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(uri.Bucket),
		Key:    aws.String(uri.Key),
	})
	if err != nil {
		return nil, mapError(err, "failed to stat "+uri.String())
	}

	return &objectstore.ObjectInfo{
		URI:          uri,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		ETag:         trimETag(aws.ToString(out.ETag)),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

// Open streams the object body. The caller MUST call Object.Close().
func (b *Backend) Open(ctx context.Context, uri objectstore.URI) (objectstore.Object, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(uri.Bucket),
		Key:    aws.String(uri.Key),
	})
	if err != nil {
		return nil, mapError(err, "failed to get "+uri.String())
	}

	return objectstore.NewObject(out.Body, &objectstore.ObjectInfo{
		URI:          uri,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		ETag:         trimETag(aws.ToString(out.ETag)),
		LastModified: aws.ToTime(out.LastModified),
	}), nil
}

// Download fetches the object into dst using ranged, parallel GETs.
func (b *Backend) Download(ctx context.Context, uri objectstore.URI, dst string) (int64, error) {
	file, err := os.Create(dst)
	if err != nil {
		return 0, errs.Wrap(errs.ErrKindUnknown, "failed to create "+dst, err)
	}
	defer file.Close()

	n, err := b.downloader.Download(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(uri.Bucket),
		Key:    aws.String(uri.Key),
	})
	if err != nil {
		_ = os.Remove(dst)
		return 0, mapError(err, "failed to download "+uri.String())
	}
	return n, nil
}

func trimETag(etag string) string {
	if len(etag) >= 2 && etag[0] == '"' && etag[len(etag)-1] == '"' {
		return etag[1 : len(etag)-1]
	}
	return etag
}
