package objectstore

import (
	"errors"
	"strings"

	"github.com/minio/minio-go/v7/pkg/s3utils"

	"github.com/koustreak/featurerepo/internal/errs"
)

// Scheme is the canonical scheme of object-store URIs.
const Scheme = "s3"

// Hadoop-style aliases accepted on input and rewritten to Scheme.
var schemeAliases = map[string]bool{"s3": true, "s3a": true, "s3n": true}

const maxKeyLen = 1024

// URI addresses one object: s3://<bucket>/<key>.
// Keys are kept verbatim; they are not URL-escaped.
type URI struct {
	Bucket string
	Key    string
}

// ParseURI parses raw as an object-store URI.
func ParseURI(raw string) (URI, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return URI{}, invalidPath(raw, errors.New("missing scheme (expected s3://)"))
	}
	if !schemeAliases[strings.ToLower(scheme)] {
		return URI{}, invalidPath(raw, errors.New("unsupported scheme "+quote(scheme)))
	}

	bucket, key, _ := strings.Cut(rest, "/")
	u := URI{Bucket: bucket, Key: key}
	if err := u.validate(); err != nil {
		return URI{}, invalidPath(raw, err)
	}
	return u, nil
}

// NewURI builds a URI from its parts with the same checks as ParseURI.
func NewURI(bucket, key string) (URI, error) {
	u := URI{Bucket: bucket, Key: key}
	if err := u.validate(); err != nil {
		return URI{}, invalidPath(u.String(), err)
	}
	return u, nil
}

// String renders the canonical s3://bucket/key form.
func (u URI) String() string {
	return Scheme + "://" + u.Bucket + "/" + u.Key
}

// validate applies the strict S3 naming rules to both providers, so a URI
// accepted for MinIO is also addressable on AWS.
func (u URI) validate() error {
	if err := s3utils.CheckValidBucketNameStrict(u.Bucket); err != nil {
		return err
	}
	if err := s3utils.CheckValidObjectName(u.Key); err != nil {
		return err
	}
	if len(u.Key) > maxKeyLen {
		return errors.New("object key longer than 1024 bytes")
	}
	return nil
}

func invalidPath(raw string, cause error) error {
	return errs.WrapField(errs.ErrKindValidation, "storage_path", "invalid object-store URI "+quote(raw), cause)
}
