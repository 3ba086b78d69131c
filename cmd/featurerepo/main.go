// Command featurerepo validates, inspects and serves a feature repository's
// file data sources backed by an S3-compatible object store.
package main

import (
	"os"

	_ "github.com/koustreak/featurerepo/internal/objectstore/minio"
	_ "github.com/koustreak/featurerepo/internal/objectstore/s3"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
