package s3blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/jackleZac/trading-algorithm/internal/domain"
)

// Reader fetches bar files for the S3 feed.
type Reader struct {
	client *s3.Client
	bucket string
}

// NewReader creates a Reader on the client's bucket.
func NewReader(c *Client) *Reader {
	return &Reader{client: c.S3(), bucket: c.Bucket()}
}

// Get opens the bar file at key. A missing object yields domain.ErrNotFound.
func (r *Reader) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if isNotFound(err) {
		return nil, fmt.Errorf("s3blob: get %s/%s: %w", r.bucket, key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("s3blob: get %s/%s: %w", r.bucket, key, err)
	}
	return out.Body, nil
}

// List pages through every object under prefix. Zero-byte keys ending in
// "/" are folder markers written by consoles and MinIO; they are skipped.
func (r *Reader) List(ctx context.Context, prefix string) ([]domain.BlobInfo, error) {
	var infos []domain.BlobInfo
	pages := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(prefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3blob: list %s/%s: %w", r.bucket, prefix, err)
		}
		infos = appendObjects(infos, page.Contents)
	}
	return infos, nil
}

func appendObjects(infos []domain.BlobInfo, objs []types.Object) []domain.BlobInfo {
	for _, obj := range objs {
		key, size := aws.ToString(obj.Key), aws.ToInt64(obj.Size)
		if size == 0 && strings.HasSuffix(key, "/") {
			continue
		}
		info := domain.BlobInfo{Path: key, Size: size, LastModified: aws.ToTime(obj.LastModified)}
		infos = append(infos, info)
	}
	return infos
}

// isNotFound matches NoSuchKey and plain 404s from S3-compatible stores.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var status interface{ HTTPStatusCode() int }
	return errors.As(err, &status) && status.HTTPStatusCode() == 404
}

var _ domain.BlobReader = (*Reader)(nil)
