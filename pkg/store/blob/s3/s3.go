// Package s3 implements blob storage on Amazon S3 or S3-compatible services.
//
// Each blob is a single object whose key is the blob id under an optional
// prefix. Overwrites map directly onto S3 PutObject semantics, and Rename
// is a server-side copy followed by a delete of the source object.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/integrable/stardust/pkg/store/blob"
)

// S3BlobStore implements blob.Store using Amazon S3 or compatible storage.
//
// S3 Characteristics:
//   - Last-write-wins on concurrent overwrites of the same key
//   - High durability; every read hits S3 (no local caching)
//   - Custom endpoints supported for MinIO, Localstack, and friends
//
// Thread Safety:
// Safe for concurrent use; the underlying S3 client is goroutine-safe.
type S3BlobStore struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// S3BlobStoreConfig contains configuration for the S3 blob store.
type S3BlobStoreConfig struct {
	// Client is the configured S3 client
	Client *s3.Client

	// Bucket is the S3 bucket name (must already exist)
	Bucket string

	// KeyPrefix is an optional prefix for all object keys
	// Example: "stardust/blobs/" results in keys like "stardust/blobs/abc123"
	KeyPrefix string
}

// NewS3BlobStore creates a new S3-based blob store.
//
// The bucket must already exist - this function does not create it, and it
// does not verify access (the first operation surfaces credential errors).
//
// Parameters:
//   - ctx: Context for cancellation
//   - cfg: S3 configuration
//
// Returns:
//   - *S3BlobStore: Initialized store
//   - error: Configuration error or context cancellation
func NewS3BlobStore(ctx context.Context, cfg S3BlobStoreConfig) (*S3BlobStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}

	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	return &S3BlobStore{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// objectKey returns the S3 object key for a blob id.
func (s *S3BlobStore) objectKey(id blob.ID) string {
	return s.keyPrefix + string(id)
}

// Save stores data under id using a single PutObject call.
func (s *S3BlobStore) Save(ctx context.Context, id blob.ID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to put blob %s to S3: %w", id, blob.ErrIO)
	}

	return nil
}

// Load downloads the complete object stored under id.
func (s *S3BlobStore) Load(ctx context.Context, id blob.ID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("blob %s: %w", id, blob.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get blob %s from S3: %w", id, blob.ErrIO)
	}
	defer func() { _ = result.Body.Close() }()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s body: %w", id, blob.ErrIO)
	}

	return data, nil
}

// Delete removes the object stored under id.
//
// S3 DeleteObject is idempotent and succeeds for missing keys, so we check
// existence first to honor the blob contract's ErrNotFound.
func (s *S3BlobStore) Delete(ctx context.Context, id blob.ID) error {
	exists, err := s.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("blob %s: %w", id, blob.ErrNotFound)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete blob %s from S3: %w", id, blob.ErrIO)
	}

	return nil
}

// Exists reports whether an object is stored under id, via HeadObject.
func (s *S3BlobStore) Exists(ctx context.Context, id blob.ID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head blob %s: %w", id, blob.ErrIO)
	}

	return true, nil
}

// Rename re-keys an object via server-side copy then delete of the source.
//
// The copy+delete pair is not atomic; a failure between the two calls can
// leave the object under both keys. The orchestrator tolerates that: the
// stale key is an orphan blob, reclaimed out of band.
func (s *S3BlobStore) Rename(ctx context.Context, oldID, newID blob.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		CopySource: aws.String(s.bucket + "/" + s.objectKey(oldID)),
		Key:        aws.String(s.objectKey(newID)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return fmt.Errorf("blob %s: %w", oldID, blob.ErrNotFound)
		}
		return fmt.Errorf("failed to copy blob %s: %w", oldID, blob.ErrIO)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(oldID)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete blob %s after copy: %w", oldID, blob.ErrIO)
	}

	return nil
}

// List returns the ids of all stored blobs under the configured prefix,
// paging through ListObjectsV2 results.
func (s *S3BlobStore) List(ctx context.Context) ([]blob.ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ids []blob.ID
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs: %w", blob.ErrIO)
		}

		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			ids = append(ids, blob.ID(strings.TrimPrefix(key, s.keyPrefix)))
		}
	}

	return ids, nil
}

// Close releases resources. The S3 client needs no explicit shutdown.
func (s *S3BlobStore) Close() error {
	return nil
}
