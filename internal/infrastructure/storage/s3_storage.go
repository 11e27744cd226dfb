// Package storage implements common.ObjectStorage for payment proofs and
// product images.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/boutique/backend/internal/application/common"
	"github.com/boutique/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var (
	_ common.ObjectStorage = (*S3ObjectStorage)(nil)

	errEmptyKey = errors.New("storage key is required")
)

const defaultPresign = 15 * time.Minute

// S3ObjectStorage keeps objects in an S3-compatible bucket (AWS S3, MinIO).
// Object URLs are presigned unless a public base URL such as a CDN is set.
type S3ObjectStorage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	publicURL string
	ttl       time.Duration
	log       *zap.Logger
}

// NewS3ObjectStorage builds the client from cfg. No request is made until the
// first upload or EnsureBucket.
func NewS3ObjectStorage(cfg config.StorageConfig, log *zap.Logger) (*S3ObjectStorage, error) {
	var missing []error
	if cfg.Bucket == "" {
		missing = append(missing, errors.New("storage.bucket is required"))
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		missing = append(missing, errors.New("storage.access_key and storage.secret_key are required"))
	}
	if err := errors.Join(missing...); err != nil {
		return nil, err
	}
	endpoint, err := endpointURL(cfg)
	if err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = cfg.UsePathStyle
	})

	ttl := cfg.PresignExpiration
	if ttl <= 0 {
		ttl = defaultPresign
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &S3ObjectStorage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		ttl:       ttl,
		log:       log.Named("s3").With(zap.String("bucket", cfg.Bucket)),
	}, nil
}

// endpointURL defaults to a local MinIO and adds the scheme UseSSL implies
func endpointURL(cfg config.StorageConfig) (string, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "localhost:9000"
	}
	if !strings.Contains(endpoint, "://") {
		scheme := "http://"
		if cfg.UseSSL {
			scheme = "https://"
		}
		endpoint = scheme + endpoint
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return "", fmt.Errorf("storage.endpoint: %w", err)
	}
	return endpoint, nil
}

func (s *S3ObjectStorage) Bucket() string { return s.bucket }

// EnsureBucket creates the bucket on first start against an empty MinIO
func (s *S3ObjectStorage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("head bucket: %w", err)
	}

	s.log.Info("Creating storage bucket")
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// Upload stores body under key and returns the URL clients should use
func (s *S3ObjectStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if key == "" {
		return "", errEmptyKey
	}
	// SigV4 over plain HTTP hashes the payload, which needs a seekable body
	rs, ok := body.(io.ReadSeeker)
	if !ok {
		buf, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("read upload: %w", err)
		}
		rs, size = bytes.NewReader(buf), int64(len(buf))
	}

	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        rs,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		in.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		s.log.Error("Upload failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	s.log.Debug("Uploaded object", zap.String("key", key), zap.Int64("size", size))

	if s.publicURL != "" {
		return s.publicURL + "/" + key, nil
	}
	return s.GenerateDownloadURL(ctx, key, 0)
}

// GenerateDownloadURL presigns a GET; expiry <= 0 uses the configured
// lifetime
func (s *S3ObjectStorage) GenerateDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if key == "" {
		return "", errEmptyKey
	}
	if expiry <= 0 {
		expiry = s.ttl
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

// DeleteObject succeeds for keys that do not exist
func (s *S3ObjectStorage) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return errEmptyKey
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
