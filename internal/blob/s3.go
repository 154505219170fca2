package blob

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sethvargo/go-retry"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// PublicBaseURL, when set, is used to build returned object URLs
	// (e.g. a CDN in front of the bucket). Defaults to the endpoint.
	PublicBaseURL string
}

// S3Store stores evidence objects in an S3-compatible bucket.
type S3Store struct {
	cfg    S3Config
	client s3Client
}

func NewS3Store(cfg S3Config) *S3Store {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return &S3Store{cfg: cfg, client: s3.New(opts)}
}

// maxAttempts bounds the retry backoff on transient S3 failures.
const maxAttempts = 3

func (s *S3Store) Upload(ctx context.Context, data []byte, path, contentType string) (string, error) {
	backoff := retry.WithMaxRetries(maxAttempts-1, retry.NewFibonacci(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.cfg.Bucket),
			Key:         aws.String(path),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
		return retry.RetryableError(err)
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	return s.objectURL(path), nil
}

func (s *S3Store) Delete(ctx context.Context, path string) error {
	backoff := retry.WithMaxRetries(maxAttempts-1, retry.NewFibonacci(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.cfg.Bucket),
			Key:    aws.String(path),
		})
		return retry.RetryableError(err)
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (s *S3Store) objectURL(path string) string {
	base := s.cfg.PublicBaseURL
	if base == "" {
		base = strings.TrimSuffix(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket
	}
	return strings.TrimSuffix(base, "/") + "/" + path
}
