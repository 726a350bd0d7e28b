package s3blob

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jackleZac/trading-algorithm/internal/domain"
)

// minPartSize is the smallest part S3 accepts (5 MiB).
const minPartSize int64 = 5 << 20

// Writer uploads run artefacts.
type Writer struct {
	client *s3.Client
	bucket string
}

// NewWriter creates a Writer on the client's bucket.
func NewWriter(c *Client) *Writer {
	return &Writer{client: c.S3(), bucket: c.Bucket()}
}

func (w *Writer) input(key string, data io.Reader, contentType string) *s3.PutObjectInput {
	in := &s3.PutObjectInput{Bucket: aws.String(w.bucket), Key: aws.String(key), Body: data}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	return in
}

// Put uploads data with a single PutObject.
func (w *Writer) Put(ctx context.Context, key string, data io.Reader, contentType string) error {
	if _, err := w.client.PutObject(ctx, w.input(key, data, contentType)); err != nil {
		return fmt.Errorf("s3blob: put %s/%s: %w", w.bucket, key, err)
	}
	return nil
}

// PutMultipart streams data through the transfer manager in parts of at
// least minPartSize. Journals are the only multipart uploads, so the content
// type is fixed to ndjson.
func (w *Writer) PutMultipart(ctx context.Context, key string, data io.Reader, partSize int64) error {
	uploader := manager.NewUploader(w.client, func(u *manager.Uploader) {
		u.PartSize = max(partSize, minPartSize)
	})
	if _, err := uploader.Upload(ctx, w.input(key, data, ndjson)); err != nil {
		return fmt.Errorf("s3blob: multipart put %s/%s: %w", w.bucket, key, err)
	}
	return nil
}

var _ domain.BlobWriter = (*Writer)(nil)
