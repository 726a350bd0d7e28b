package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jackleZac/trading-algorithm/internal/domain"
)

// BlobSource streams CSV bar files from object storage one after another.
// A key ending in "/" is a prefix: every ".csv" object under it is read in
// key order, so monthly files named by date concatenate chronologically.
type BlobSource struct {
	blobs domain.BlobReader
	keys  []string
	cur   *CSVSource
}

// OpenBlobCSV opens key, or every CSV object under key when it ends in "/".
// The returned source must be closed.
func OpenBlobCSV(ctx context.Context, blobs domain.BlobReader, key string) (*BlobSource, error) {
	keys := []string{key}
	if strings.HasSuffix(key, "/") {
		var err error
		if keys, err = csvKeys(ctx, blobs, key); err != nil {
			return nil, err
		}
	}
	s := &BlobSource{blobs: blobs, keys: keys}
	if err := s.advance(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func csvKeys(ctx context.Context, blobs domain.BlobReader, prefix string) ([]string, error) {
	infos, err := blobs.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("feed/blob: list %s: %w", prefix, err)
	}
	var keys []string
	for _, info := range infos {
		if strings.HasSuffix(strings.ToLower(info.Path), ".csv") {
			keys = append(keys, info.Path)
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("feed/blob: no csv objects under %s: %w", prefix, domain.ErrNotFound)
	}
	slices.Sort(keys)
	return keys, nil
}

// advance closes the current file and opens the next key.
func (s *BlobSource) advance(ctx context.Context) error {
	if s.cur != nil {
		_ = s.cur.Close()
		s.cur = nil
	}
	if len(s.keys) == 0 {
		return io.EOF
	}
	key := s.keys[0]
	s.keys = s.keys[1:]
	rc, err := s.blobs.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("feed/blob: get %s: %w", key, err)
	}
	src, err := NewCSVSource(rc, key)
	if err != nil {
		_ = rc.Close()
		return err
	}
	s.cur = src
	return nil
}

// Next returns the next bar across all files, io.EOF after the last one.
func (s *BlobSource) Next(ctx context.Context) (domain.Bar, error) {
	for s.cur != nil {
		b, err := s.cur.Next(ctx)
		if !errors.Is(err, io.EOF) {
			return b, err
		}
		if err := s.advance(ctx); err != nil {
			return domain.Bar{}, err
		}
	}
	return domain.Bar{}, io.EOF
}

// Close releases the open file, if any.
func (s *BlobSource) Close() error {
	if s.cur == nil {
		return nil
	}
	err := s.cur.Close()
	s.cur = nil
	return err
}
