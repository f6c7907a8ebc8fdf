package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/aqar-dev/aqarhub/internal/config"
)

// Store uploads blobs (payment receipts, listing photos) to a MinIO
// bucket and hands back opaque object keys.
type Store struct {
	client *minio.Client
	bucket string
}

var store *Store

// Init connects to MinIO and makes sure the bucket exists.
func Init(cfg config.BlobConfig) error {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create minio client for endpoint %s: %w", cfg.Endpoint, err)
	}

	ctx := context.Background()
	if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		exists, errBucketExists := client.BucketExists(ctx, cfg.Bucket)
		if errBucketExists != nil || !exists {
			return fmt.Errorf("failed to make/verify bucket %s: %w", cfg.Bucket, err)
		}
	}

	store = &Store{client: client, bucket: cfg.Bucket}
	return nil
}

// Enabled reports whether a blob store was configured.
func Enabled() bool {
	return store != nil
}

// Upload stores data under a generated key in the given folder,
// keeping the original file extension. Returns the object key.
func Upload(ctx context.Context, folder, originalFileName string, data []byte) (string, error) {
	if store == nil {
		return "", fmt.Errorf("blob store not configured")
	}

	ext := filepath.Ext(originalFileName)
	objectKey := fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), ext)

	_, err := store.client.PutObject(ctx, store.bucket, objectKey,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: http.DetectContentType(data)},
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", objectKey, store.bucket, err)
	}

	return objectKey, nil
}
