// Package storage uploads rendered media to S3-compatible object storage and
// hands back presigned URLs.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"reelcast/internal/config"
	"reelcast/internal/logging"
)

// Store publishes objects to one bucket.
type Store struct {
	client *minio.Client
	bucket string
	region string
	expiry time.Duration
	logger *slog.Logger

	mu          sync.Mutex
	bucketReady bool
}

// New connects to the configured endpoint. No request is made until the
// first upload.
func New(cfg config.Storage, logger *slog.Logger) (*Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	if endpoint == "" {
		return nil, errors.New("storage endpoint is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("storage bucket is required")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	expiry := time.Duration(cfg.PresignExpiryMinutes) * time.Minute
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		expiry: expiry,
		logger: logging.NewComponentLogger(logger, "storage"),
	}, nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucketReady {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
		s.logger.Info("bucket created", logging.String("bucket", s.bucket))
	}
	s.bucketReady = true
	return nil
}

// Put uploads data under objectName and returns a presigned GET URL.
func (s *Store) Put(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, s.expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectName, err)
	}
	s.logger.Debug("object uploaded",
		logging.String("object", objectName),
		logging.Int("bytes", len(data)),
	)
	return presigned.String(), nil
}

// Publish stores rendered audio under audio/<key>/<uuid>.<ext>. It satisfies
// the voice stage publisher contract.
func (s *Store) Publish(ctx context.Context, key string, audio []byte, contentType string) (string, error) {
	if strings.TrimSpace(key) == "" {
		key = "adhoc"
	}
	name := path.Join("audio", key, uuid.NewString()+extensionFor(contentType))
	return s.Put(ctx, name, audio, contentType)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "audio/mpeg":
		return ".mp3"
	case "audio/pcm":
		return ".pcm"
	case "audio/opus":
		return ".opus"
	case "audio/basic":
		return ".ulaw"
	default:
		return ".bin"
	}
}
