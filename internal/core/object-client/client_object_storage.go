package objectclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	cfg "github.com/markdave123-py/Mosaic/internal/config"
	"github.com/markdave123-py/Mosaic/internal/core"
	"github.com/markdave123-py/Mosaic/internal/logger"
)

var _ core.ObjectClient = (*S3Client)(nil)

const (
	archivePrefix   = "uploads/"
	archivePartSize = 16 << 20
	s3CallTimeout   = 30 * time.Second
)

// S3Options locate the archive bucket.
type S3Options struct {
	Region    string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
}

// S3OptionsFrom reads the archive settings out of the application config.
func S3OptionsFrom(c *cfg.Config) S3Options {
	return S3Options{
		Region:    c.AwsRegion,
		Bucket:    c.BucketName,
		Prefix:    archivePrefix,
		AccessKey: c.AwsAccessKey,
		SecretKey: c.AwsSecretKey,
	}
}

func (o S3Options) validate() error {
	var errs []error
	if o.AccessKey == "" || o.SecretKey == "" {
		errs = append(errs, errors.New("AWS credentials not set"))
	}
	if o.Region == "" {
		errs = append(errs, errors.New("AWS_REGION not set"))
	}
	if o.Bucket == "" {
		errs = append(errs, errors.New("BUCKET_NAME not set"))
	}
	return errors.Join(errs...)
}

// S3Client archives uploads under a key prefix of one bucket.
type S3Client struct {
	client   *s3.Client
	uploader *manager.Uploader
	opts     S3Options
}

func NewS3Client(ctx context.Context, opts S3Options) (*S3Client, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Prefix != "" && !strings.HasSuffix(opts.Prefix, "/") {
		opts.Prefix += "/"
	}

	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = archivePartSize
	})
	logger.Info("s3 archive enabled", "bucket", opts.Bucket, "prefix", opts.Prefix)

	return &S3Client{client: client, uploader: uploader, opts: opts}, nil
}

func (c *S3Client) objectKey(key string) *string { return aws.String(c.opts.Prefix + key) }

// URL is the virtual-hosted address of an archived upload.
func (c *S3Client) URL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s%s", c.opts.Bucket, c.opts.Region, c.opts.Prefix, key)
}

// UploadFile streams data to S3 in multipart chunks and returns the object URL.
func (c *S3Client) UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.opts.Bucket),
		Key:         c.objectKey(key),
		Body:        data,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s: %w", key, err)
	}
	return c.URL(key), nil
}

// DeleteFile removes an archived upload. A missing object is not an error.
func (c *S3Client) DeleteFile(ctx context.Context, key string) error {
	ctxDel, cancel := context.WithTimeout(ctx, s3CallTimeout)
	defer cancel()

	_, err := c.client.DeleteObject(ctxDel, &s3.DeleteObjectInput{
		Bucket: aws.String(c.opts.Bucket),
		Key:    c.objectKey(key),
	})
	var missing *types.NoSuchKey
	if err != nil && !errors.As(err, &missing) {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}

// GetObjectReader returns the object body; the caller closes it. The body is
// bound to ctx. A missing object is reported as fs.ErrNotExist.
func (c *S3Client) GetObjectReader(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.opts.Bucket),
		Key:    c.objectKey(key),
	})
	var missing *types.NoSuchKey
	if errors.As(err, &missing) {
		return nil, fmt.Errorf("s3 get %s: %w", key, fs.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	return resp.Body, nil
}
