package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ikkim/dealer-backend/config"
	"github.com/ikkim/dealer-backend/pkg/logger"
)

// S3Storage keeps exported reports in a bucket and hands out presigned
// download links.
type S3Storage struct {
	client        *s3.Client
	presign       *s3.PresignClient
	bucket        string
	presignExpiry time.Duration
}

func NewS3Storage(ctx context.Context, cfg config.S3Config) (*S3Storage, error) {
	var awsCfg aws.Config

	// static keys when given, otherwise the default chain (env, shared config, IAM role)
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg = aws.Config{
			Region: cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		}
	} else {
		var err error
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
	}

	client := s3.NewFromConfig(awsCfg)
	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}

	logger.Info("S3 report storage configured", map[string]interface{}{
		"bucket": cfg.Bucket,
		"region": cfg.Region,
	})
	return &S3Storage{
		client:        client,
		presign:       s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		presignExpiry: expiry,
	}, nil
}

// UploadReport stores body under key and returns a presigned GET URL.
func (s *S3Storage) UploadReport(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	logger.Debug("Uploading report to S3", map[string]interface{}{
		"bucket": s.bucket,
		"key":    key,
		"bytes":  len(body),
	})

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return req.URL, nil
}
