package s3

import (
	"errors"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"

	"github.com/koustreak/featurerepo/internal/objectstore"
)

// mapError translates an AWS SDK error into a read-time *errs.Error.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var code string
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.ErrorCode()
	}

	// HEAD responses carry no body, so only the status code is available
	var status int
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		status = respErr.HTTPStatusCode()
	}

	return objectstore.ReadError(err, msg, code, status)
}
