package backup

import (
	"bytes"
	"context"
	"io"

	s3store "github.com/alfredjeanlab/campus/internal/uploads/s3"
)

// objectWriter is the part of an object store the S3 destination needs.
type objectWriter interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) error
}

// S3Destination overwrites a single object with each export.
type S3Destination struct {
	objects objectWriter
	bucket  string
	key     string
}

// NewS3Destination writes exports to key in bucket. A non-empty endpoint
// selects path-style addressing for MinIO and similar servers.
func NewS3Destination(ctx context.Context, bucket, key, region, endpoint string) (*S3Destination, error) {
	st, err := s3store.New(ctx, bucket, "", region, endpoint)
	if err != nil {
		return nil, err
	}
	return &S3Destination{objects: st, bucket: bucket, key: key}, nil
}

func (d *S3Destination) Name() string { return "s3://" + d.bucket + "/" + d.key }

func (d *S3Destination) Write(ctx context.Context, data []byte) error {
	return d.objects.Save(ctx, d.key, "application/x-ndjson", bytes.NewReader(data))
}
