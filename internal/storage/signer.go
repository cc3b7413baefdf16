// Package storage mints presigned URLs against an S3-compatible bucket.
// Attachment bytes never pass through the service.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/spec-kit/support-tickets/internal/config"
)

// ErrNotConfigured is returned by the disabled signer.
var ErrNotConfigured = errors.New("object storage is not configured")

// ObjectSigner mints time-limited URLs for a single object key. PresignDownload
// also reports how long the returned URL stays valid, which is less than ttl
// when the URL was minted earlier and reused.
type ObjectSigner interface {
	PresignUpload(ctx context.Context, objectKey, contentType string, ttl time.Duration) (string, error)
	PresignDownload(ctx context.Context, objectKey string, ttl time.Duration) (string, time.Duration, error)
}

// S3Signer signs requests locally with static credentials; no network call is made.
type S3Signer struct {
	client *s3.S3
	bucket string
}

// NewS3Signer builds a signer with path-style addressing so MinIO endpoints work.
func NewS3Signer(cfg config.StorageConfig) (*S3Signer, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
		DisableSSL:       aws.Bool(!cfg.UseSSL),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return &S3Signer{client: s3.New(sess), bucket: cfg.Bucket}, nil
}

func (s *S3Signer) PresignUpload(ctx context.Context, objectKey, contentType string, ttl time.Duration) (string, error) {
	req, _ := s.client.PutObjectRequest(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	})
	req.SetContext(ctx)
	url, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("presign upload: %w", err)
	}
	return url, nil
}

func (s *S3Signer) PresignDownload(ctx context.Context, objectKey string, ttl time.Duration) (string, time.Duration, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	req.SetContext(ctx)
	url, err := req.Presign(ttl)
	if err != nil {
		return "", 0, fmt.Errorf("presign download: %w", err)
	}
	return url, ttl, nil
}

// DisabledSigner fails every request; used when no bucket is configured.
type DisabledSigner struct{}

func (DisabledSigner) PresignUpload(context.Context, string, string, time.Duration) (string, error) {
	return "", ErrNotConfigured
}

func (DisabledSigner) PresignDownload(context.Context, string, time.Duration) (string, time.Duration, error) {
	return "", 0, ErrNotConfigured
}

// NewSigner returns an S3 signer when storage is configured and a DisabledSigner otherwise.
func NewSigner(cfg config.StorageConfig) (ObjectSigner, error) {
	if !cfg.Configured() {
		return DisabledSigner{}, nil
	}
	return NewS3Signer(cfg)
}
