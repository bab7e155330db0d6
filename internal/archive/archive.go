// Package archive uploads rotated execution logs to S3-compatible object
// storage, so history survives `tfpilot down` deleting the project
// directory.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/tfpilot/tfpilot/internal/history"
	"github.com/tfpilot/tfpilot/internal/util/retry"
)

// Config points the archiver at a bucket. Endpoint may name any
// S3-compatible service; empty means AWS S3 proper.
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string

	// Prefix is prepended to every uploaded key, e.g. "myproject".
	Prefix string
}

// Archiver copies log files into the configured bucket.
type Archiver struct {
	s3  *s3.Client
	cfg Config
}

// New builds an Archiver. Static credentials win when provided; otherwise
// the ambient AWS credential chain applies.
func New(ctx context.Context, cfg Config) (*Archiver, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Archiver{s3: client, cfg: cfg}, nil
}

// EnsureBucket creates the bucket when it does not exist yet. A bucket we
// already own is fine.
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	_, err := a.s3.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(a.cfg.Bucket),
	})
	if err == nil {
		return nil
	}
	if !isNotFoundError(err) {
		return fmt.Errorf("failed to check bucket %s: %w", a.cfg.Bucket, err)
	}

	_, err = a.s3.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(a.cfg.Bucket),
	})
	if err != nil && !isBucketAlreadyOwnedByYou(err) {
		return fmt.Errorf("failed to create bucket %s: %w", a.cfg.Bucket, err)
	}
	return nil
}

// UploadLog copies one recorded log into the bucket and returns its key,
// {prefix/}{command}/{filename}.
func (a *Archiver) UploadLog(ctx context.Context, d history.Descriptor) (string, error) {
	// #nosec G304
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return "", fmt.Errorf("reading log %s: %w", d.Path, err)
	}

	key := a.keyFor(d)
	err = retry.Do(ctx, func() error {
		_, err := a.s3.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(a.cfg.Bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(data),
			ContentLength: aws.Int64(int64(len(data))),
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s in bucket %s: %w", key, a.cfg.Bucket, err)
	}
	return key, nil
}

// UploadLogs uploads every descriptor, returning the keys that made it. The
// first failure stops the batch.
func (a *Archiver) UploadLogs(ctx context.Context, descriptors []history.Descriptor) ([]string, error) {
	keys := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		key, err := a.UploadLog(ctx, d)
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// ListArchived returns the archived log keys of one command, or of all
// commands when command is empty.
func (a *Archiver) ListArchived(ctx context.Context, command history.Command) ([]string, error) {
	prefix := a.cfg.Prefix
	if command != "" {
		prefix = path.Join(a.cfg.Prefix, string(command)) + "/"
	}

	input := &s3.ListObjectsV2Input{Bucket: aws.String(a.cfg.Bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	result, err := a.s3.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects in bucket %s: %w", a.cfg.Bucket, err)
	}

	var keys []string
	for _, obj := range result.Contents {
		if obj.Key != nil {
			keys = append(keys, *obj.Key)
		}
	}
	return keys, nil
}

func (a *Archiver) keyFor(d history.Descriptor) string {
	return path.Join(a.cfg.Prefix, string(d.Command), path.Base(d.Path))
}

// isBucketAlreadyOwnedByYou matches both the typed SDK errors and the raw
// API codes that S3-compatible services return.
func isBucketAlreadyOwnedByYou(err error) bool {
	if err == nil {
		return false
	}

	var baoby *types.BucketAlreadyOwnedByYou
	if errors.As(err, &baoby) {
		return true
	}
	var bae *types.BucketAlreadyExists
	if errors.As(err, &bae) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists"
	}
	return false
}

func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchBucket" || code == "404"
	}
	return false
}
