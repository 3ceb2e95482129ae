package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/FALLENEZER/Spotik-sub003/config"
	"github.com/FALLENEZER/Spotik-sub003/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// AudioStore keeps uploaded audio payloads in MinIO. The core only ever
// sees the resulting object key on the Track record.
type AudioStore struct {
	client *minio.Client
	bucket string
}

// NewAudioStore connects to MinIO and ensures the bucket exists.
func NewAudioStore(cfg *config.Config) (*AudioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("created bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &AudioStore{client: client, bucket: cfg.MinioBucket}, nil
}

// Put stores an audio payload and returns its object key. The key embeds
// the room so room deletions can sweep by prefix.
func (s *AudioStore) Put(ctx context.Context, roomID, originalName, contentType string, size int64, r io.Reader) (string, error) {
	objectKey := fmt.Sprintf("rooms/%s/%s%s", roomID, uuid.New().String(), filepath.Ext(originalName))

	_, err := s.client.PutObject(ctx, s.bucket, objectKey, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store audio object: %w", err)
	}

	logger.Info("audio object stored",
		logger.String("bucket", s.bucket),
		logger.String("object", objectKey),
		logger.Int64("size", size))
	return objectKey, nil
}

// Remove deletes an audio object. Missing objects are not an error.
func (s *AudioStore) Remove(ctx context.Context, objectKey string) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove audio object: %w", err)
	}
	return nil
}

// RemoveRoomObjects sweeps every object stored under the room's prefix.
// Used when a room is deleted; individual failures abort the sweep so a
// retry can pick up the remainder.
func (s *AudioStore) RemoveRoomObjects(ctx context.Context, roomID string) error {
	prefix := fmt.Sprintf("rooms/%s/", roomID)

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return fmt.Errorf("failed to list room objects: %w", obj.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to remove room object %s: %w", obj.Key, err)
		}
	}
	return nil
}

// Ping verifies the connection, for the diagnostics command.
func (s *AudioStore) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("MinIO ping failed: %w", err)
	}
	return nil
}
