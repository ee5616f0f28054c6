// Package storage transfers backup files to an S3 bucket.
//
// Credentials are resolved by the AWS SDK default chain (environment,
// ~/.aws/credentials, instance metadata) and are never read by this package.
package storage

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/Sayam753/SendToS3/internal/apperr"
)

// ObjectStore is the narrow view of an object store used by the pipeline.
type ObjectStore interface {
	// PutObject writes body under key, overwriting any existing object.
	PutObject(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
	// HeadBucket checks that bucket exists and is reachable.
	HeadBucket(ctx context.Context, bucket string) error
}

// S3Config holds connection settings for S3 or an S3-compatible store.
type S3Config struct {
	Region    string // empty = SDK default resolution
	Profile   string // shared config profile, empty = default
	Endpoint  string // custom endpoint (MinIO, Ceph, ...)
	PathStyle bool   // path-style addressing for S3-compatible stores
	AppID     string // appended to the SDK User-Agent
}

type uploadAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type headBucketAPI interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Store implements ObjectStore with aws-sdk-go-v2.
type S3Store struct {
	uploader uploadAPI
	client   headBucketAPI
}

// NewS3Store loads the AWS configuration and builds an S3 client.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	if cfg.AppID != "" {
		opts = append(opts, awsconfig.WithAppID(cfg.AppID))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, apperr.Configuration("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return &S3Store{
		uploader: manager.NewUploader(client),
		client:   client,
	}, nil
}

// PutObject uploads body to bucket/key. Large files are split into parts by
// the SDK upload manager.
func (s *S3Store) PutObject(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return apperr.Transfer("put s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// HeadBucket distinguishes a forbidden bucket and a missing bucket from
// transport failures.
func (s *S3Store) HeadBucket(ctx context.Context, bucket string) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return classifyHeadError(bucket, err)
	}
	return nil
}

func classifyHeadError(bucket string, err error) error {
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusForbidden:
			return apperr.Transfer("private bucket %s: forbidden access: %w", bucket, err)
		case http.StatusNotFound:
			return apperr.Transfer("bucket %s does not exist: %w", bucket, err)
		}
	}
	return apperr.Transfer("bucket %s unreachable: %w", bucket, err)
}
