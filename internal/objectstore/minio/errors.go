package minio

import (
	"errors"

	miniogo "github.com/minio/minio-go/v7"

	"github.com/koustreak/featurerepo/internal/objectstore"
)

// mapError translates a MinIO SDK error into a read-time *errs.Error.
// S3-protocol errors arrive as a typed ErrorResponse carrying both the
// code and the status.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var resp miniogo.ErrorResponse
	if errors.As(err, &resp) {
		return objectstore.ReadError(err, msg, resp.Code, resp.StatusCode)
	}
	return objectstore.ReadError(err, msg, "", 0)
}
