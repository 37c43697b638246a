package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PauloVieira29/Fitness/internal/config"
	"github.com/PauloVieira29/Fitness/internal/logging"
	"github.com/PauloVieira29/Fitness/internal/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Storage implements the FileStorage interface using an S3-compatible backend.
type s3Storage struct {
	client        *s3.Client
	bucketName    string
	publicBaseURL string
}

// NewS3Storage creates a new S3 storage service instance.
func NewS3Storage(ctx context.Context, cfg config.S3Config) (FileStorage, error) {
	awsSDKConfig, err := awsCfg.LoadDefaultConfig(ctx,
		awsCfg.WithRegion(cfg.Region),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := endpointURL(cfg.Endpoint, cfg.UseSSL)
	// Path-style addressing is required by most S3-compatible services (MinIO).
	client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})

	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		if endpoint != "" {
			base = strings.TrimRight(endpoint, "/") + "/" + cfg.BucketName
		} else {
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.BucketName, cfg.Region)
		}
	}

	logging.Info().Str("endpoint", endpoint).Str("bucket", cfg.BucketName).Msg("S3 storage initialized")

	return &s3Storage{
		client:        client,
		bucketName:    cfg.BucketName,
		publicBaseURL: base,
	}, nil
}

// endpointURL adds a scheme to bare host:port endpoints.
func endpointURL(endpoint string, useSSL bool) string {
	if endpoint == "" || strings.Contains(endpoint, "://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

func (s *s3Storage) PutObject(ctx context.Context, objectKey, contentType string, body io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(objectKey),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	metrics.RecordStorageOperation("put", err)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("key", objectKey).Msg("Failed to put object")
		return err
	}
	return nil
}

func (s *s3Storage) DeleteObject(ctx context.Context, objectKey string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	})
	metrics.RecordStorageOperation("delete", err)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("key", objectKey).Str("bucket", s.bucketName).Msg("Failed to delete object")
		return err
	}
	logging.Ctx(ctx).Debug().Str("key", objectKey).Msg("Deleted object")
	return nil
}

func (s *s3Storage) ObjectURL(objectKey string) string {
	return s.publicBaseURL + "/" + objectKey
}

func (s *s3Storage) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucketName)})
	metrics.RecordStorageOperation("head_bucket", err)
	return err
}
