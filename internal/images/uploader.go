// Package images stores plant photos in S3-compatible object storage and
// hands back the public URL the record keeps.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Allowed MIME types for plant images.
const (
	MIMEImageJPEG = "image/jpeg"
	MIMEImagePNG  = "image/png"
)

// AllowedMIMETypes maps allowed MIME types to their file extensions.
var AllowedMIMETypes = map[string]string{
	MIMEImageJPEG: ".jpg",
	MIMEImagePNG:  ".png",
}

// Validation errors.
var (
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrImageTooLarge   = errors.New("image size exceeds maximum allowed")
)

// s3API is the subset of the S3 client the uploader needs.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader writes plant images under a user-scoped key and returns their
// public URL.
type Uploader struct {
	client        s3API
	bucket        string
	publicBaseURL string
	maxSizeBytes  int64
}

// UploaderConfig holds configuration for the image uploader.
type UploaderConfig struct {
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	MaxSizeMB       int
}

// NewUploader creates an Uploader with an S3-compatible client configured
// for path-style addressing (works for R2 and MinIO as well as S3).
func NewUploader(cfg UploaderConfig) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("credentials are required")
	}
	if cfg.PublicBaseURL == "" {
		return nil, errors.New("public base URL is required")
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}

	client := s3.New(s3.Options{
		Region: "auto",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		BaseEndpoint: aws.String(cfg.Endpoint),
		UsePathStyle: true,
	})

	return &Uploader{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		maxSizeBytes:  int64(cfg.MaxSizeMB) * 1024 * 1024,
	}, nil
}

// NewUploaderWithClient constructs an Uploader with an injected client (used in tests).
func NewUploaderWithClient(client s3API, bucket, publicBaseURL string, maxSizeMB int) *Uploader {
	return &Uploader{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		maxSizeBytes:  int64(maxSizeMB) * 1024 * 1024,
	}
}

// objectKey builds a user-scoped key: {userID}/{uuid}{ext}.
func objectKey(userID, contentType string) (string, error) {
	ext, ok := AllowedMIMETypes[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}
	return userID + "/" + uuid.NewString() + ext, nil
}

// Upload validates and stores one image, returning its public URL.
func (u *Uploader) Upload(ctx context.Context, userID, contentType string, sizeBytes int64, body io.Reader) (string, error) {
	if sizeBytes <= 0 {
		return "", errors.New("image size must be positive")
	}
	if sizeBytes > u.maxSizeBytes {
		return "", ErrImageTooLarge
	}

	key, err := objectKey(userID, contentType)
	if err != nil {
		return "", err
	}

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(sizeBytes),
	})
	if err != nil {
		return "", fmt.Errorf("uploading image %s: %w", key, err)
	}

	return u.publicBaseURL + "/" + key, nil
}
