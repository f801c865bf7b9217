// Package objectstore holds uploaded audio blobs in S3 (or any
// S3-compatible service). Clients upload out-of-band through presigned URLs
// and hand the returned storage reference to the import pipeline.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type Config struct {
	Region         string
	Bucket         string
	AccessKey      string
	SecretKey      string
	Endpoint       string
	ForcePathStyle bool
	UploadExpiry   time.Duration
}

// Store wraps an S3 bucket behind the two operations the pipeline needs.
type Store struct {
	client  *awss3.Client
	presign *awss3.PresignClient
	bucket  string
	expiry  time.Duration
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("objectstore: load aws config: %w", err)
	}

	var s3Opts []func(*awss3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.UsePathStyle = true
		})
	}

	client := awss3.NewFromConfig(awsCfg, s3Opts...)
	expiry := cfg.UploadExpiry
	if expiry == 0 {
		expiry = 15 * time.Minute
	}
	return &Store{
		client:  client,
		presign: awss3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		expiry:  expiry,
	}, nil
}

// UploadURL issues a presigned PUT URL plus the storage reference the client
// hands back once the upload completes.
func (s *Store) UploadURL(ctx context.Context, contentType string) (string, string, error) {
	key := "audio/" + uuid.New().String()
	input := &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	req, err := s.presign.PresignPutObject(ctx, input,
		func(po *awss3.PresignOptions) { po.Expires = s.expiry })
	if err != nil {
		return "", "", fmt.Errorf("objectstore: presign upload: %w", err)
	}
	return req.URL, key, nil
}

// Get returns a reader over the blob plus its stored content type.
func (s *Store) Get(ctx context.Context, storageRef string) (io.ReadCloser, string, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageRef),
	})
	if err != nil {
		return nil, "", fmt.Errorf("objectstore: get %s: %w", storageRef, err)
	}
	return out.Body, aws.ToString(out.ContentType), nil
}
