package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"chatgrid/internal/pkg/errs"
	"chatgrid/internal/pkg/logx"
)

// s3Client implements Service against any S3-compatible endpoint.
type s3Client struct {
	cfg      ServiceConfig
	client   *s3.Client
	presign  *s3.PresignClient
	uploader *manager.Uploader
	logger   zerolog.Logger
}

// newS3Client initializes the S3 client with static credentials and a
// custom endpoint, path-style addressing for non-AWS backends.
func newS3Client(cfg ServiceConfig) (*s3Client, error) {
	logger := logx.Logger().With().Str("component", "S3Client").Logger()

	sdkCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load AWS SDK config.")
		return nil, errs.NewError(errs.ErrFileStorageFailed)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		o.UsePathStyle = true
	})

	return &s3Client{
		cfg:      cfg,
		client:   client,
		presign:  s3.NewPresignClient(client),
		uploader: manager.NewUploader(client),
		logger:   logger,
	}, nil
}

// Upload streams body into the bucket under key.
func (c *s3Client) Upload(ctx context.Context, key string, mimeType string, body io.Reader) error {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &c.cfg.S3BucketName,
		Key:         &key,
		ContentType: &mimeType,
		Body:        body,
	})
	if err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("S3 upload failed.")
		return errs.NewError(errs.ErrFileStorageFailed)
	}

	return nil
}

// PresignUpload generates a time-limited URL for uploading an object with
// the given key, MIME type and exact size.
func (c *s3Client) PresignUpload(ctx context.Context, key string, mimeType string, fileSize int64, duration time.Duration) (string, error) {
	resp, err := c.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        &c.cfg.S3BucketName,
		Key:           &key,
		ContentType:   &mimeType,
		ContentLength: &fileSize,
	}, s3.WithPresignExpires(duration))
	if err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("Failed to presign upload URL.")
		return "", errs.NewError(errs.ErrFileStorageFailed)
	}

	return resp.URL, nil
}

// PresignDownload generates a time-limited URL for fetching the object.
func (c *s3Client) PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error) {
	resp, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &c.cfg.S3BucketName,
		Key:    &key,
	}, s3.WithPresignExpires(duration))
	if err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("Failed to presign download URL.")
		return "", errs.NewError(errs.ErrFileStorageFailed)
	}

	return resp.URL, nil
}

// Head fetches the object's metadata.
func (c *s3Client) Head(ctx context.Context, key string) (ObjectInfo, error) {
	resp, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &c.cfg.S3BucketName,
		Key:    &key,
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return ObjectInfo{}, errs.NewError(errs.ErrAttachmentKeyInvalid)
		}
		c.logger.Error().Err(err).Str("key", key).Msg("Failed to fetch object metadata.")
		return ObjectInfo{}, errs.NewError(errs.ErrFileStorageFailed)
	}

	info := ObjectInfo{}
	if resp.ContentType != nil {
		info.ContentType = *resp.ContentType
	}
	if resp.ContentLength != nil {
		info.ContentLength = *resp.ContentLength
	}

	return info, nil
}

// Delete removes the object under key.
func (c *s3Client) Delete(ctx context.Context, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &c.cfg.S3BucketName,
		Key:    &key,
	})
	if err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("S3 delete failed.")
		return errs.NewError(errs.ErrFileStorageFailed)
	}

	return nil
}
