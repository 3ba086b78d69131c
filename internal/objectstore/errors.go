package objectstore

import (
	"context"
	"errors"
	"net/http"

	"github.com/koustreak/featurerepo/internal/errs"
)

// codeKinds classifies S3 error codes. MinIO and AWS return the same codes,
// so both providers share this table.
var codeKinds = map[string]errs.ErrKind{
	"NotFound":     errs.ErrKindNotFound,
	"NoSuchBucket": errs.ErrKindNotFound,
	"NoSuchKey":    errs.ErrKindNotFound,
	"NoSuchUpload": errs.ErrKindNotFound,

	"AccessDenied":          errs.ErrKindPermissionDenied,
	"Forbidden":             errs.ErrKindPermissionDenied,
	"InvalidAccessKeyId":    errs.ErrKindPermissionDenied,
	"SignatureDoesNotMatch": errs.ErrKindPermissionDenied,

	"BadRequest":        errs.ErrKindInvalidInput,
	"InvalidBucketName": errs.ErrKindInvalidInput,
	"InvalidObjectName": errs.ErrKindInvalidInput,
	"KeyTooLongError":   errs.ErrKindInvalidInput,

	"RequestTimeout": errs.ErrKindTimeout,
	"SlowDown":       errs.ErrKindTimeout,
}

// statusKinds is the fallback for responses without an error body (HEAD).
var statusKinds = map[int]errs.ErrKind{
	http.StatusNotFound:     errs.ErrKindNotFound,
	http.StatusForbidden:    errs.ErrKindPermissionDenied,
	http.StatusUnauthorized: errs.ErrKindPermissionDenied,
	http.StatusBadRequest:   errs.ErrKindInvalidInput,
}

// ReadError wraps a provider error as a read-time *errs.Error. Providers
// extract code and status from their SDK's error type; either may be zero.
// Context expiry wins, then the code, then the status. Anything else is a
// connection failure.
func ReadError(err error, msg, code string, status int) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}
	if kind, ok := codeKinds[code]; ok {
		return errs.Wrap(kind, msg, err)
	}
	if kind, ok := statusKinds[status]; ok {
		return errs.Wrap(kind, msg, err)
	}
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
