// Package objectstore stores uploads through any S3-compatible endpoint, such
// as the S3 gateway of Supabase Storage or MinIO in development.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
)

var tracer = otel.Tracer("objectstore")

// S3Config holds the endpoint and credentials of the S3 gateway.
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// PublicBase is prefixed to bucket/key to build public URLs.
	PublicBase string
}

// S3 implements port.ObjectStore on aws-sdk-go-v2.
type S3 struct {
	client     *s3.Client
	publicBase string
	logger     *zap.Logger
}

// NewS3 builds a path-style client for cfg.Endpoint.
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})
	return &S3{
		client:     client,
		publicBase: strings.TrimRight(cfg.PublicBase, "/"),
		logger:     logger,
	}, nil
}

func (s *S3) Upload(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	ctx, span := tracer.Start(ctx, "S3.Upload")
	defer span.End()
	span.SetAttributes(attribute.String("storage.bucket", bucket), attribute.String("storage.key", key))

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.logger.Error("s3: upload failed", zap.String("bucket", bucket), zap.String("key", key), zap.Error(err))
		return &domain.ErrExternalService{Service: "s3", Err: err}
	}
	return nil
}

func (s *S3) PublicURL(bucket, key string) string {
	return s.publicBase + "/" + url.PathEscape(bucket) + "/" + url.PathEscape(key)
}

// Remove deletes keys from bucket in one DeleteObjects call.
func (s *S3) Remove(ctx context.Context, bucket string, keys []string) error {
	ctx, span := tracer.Start(ctx, "S3.Remove")
	defer span.End()
	span.SetAttributes(attribute.String("storage.bucket", bucket), attribute.Int("storage.keys", len(keys)))

	if len(keys) == 0 {
		return nil
	}
	ids := make([]types.ObjectIdentifier, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
	}
	_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
	})
	if err != nil {
		s.logger.Error("s3: remove failed", zap.String("bucket", bucket), zap.Int("keys", len(keys)), zap.Error(err))
		return &domain.ErrExternalService{Service: "s3", Err: err}
	}
	return nil
}
