// Package archive keeps a copy of accepted upload files in S3.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	appconfig "law-reports-backend/internal/config"
	"law-reports-backend/internal/models"
)

// Upload is one accepted file and the batch it produced.
type Upload struct {
	Batch    models.Batch
	Filename string
	Content  []byte
}

// Archiver stores raw uploads. Failures never fail the upload itself.
type Archiver interface {
	Archive(ctx context.Context, u Upload) error
}

// Nop discards uploads; used when archiving is disabled.
type Nop struct{}

func (Nop) Archive(context.Context, Upload) error { return nil }

type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Archiver struct {
	client putter
	bucket string
	prefix string
	log    *zap.Logger
}

// New returns an S3 archiver, or Nop when archiving is disabled.
func New(ctx context.Context, cfg appconfig.ArchiveConfig, log *zap.Logger) (Archiver, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.AWSProfile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3Archiver(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.Prefix, log), nil
}

func NewS3Archiver(client putter, bucket, prefix string, log *zap.Logger) *S3Archiver {
	if log == nil {
		log = zap.NewNop()
	}
	return &S3Archiver{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/"), log: log}
}

// Key is prefix/report/YYYY-MM/fingerprint.ext, so re-archiving the same file is a no-op overwrite.
func (a *S3Archiver) Key(u Upload) string {
	ext := strings.ToLower(filepath.Ext(u.Filename))
	return path.Join(a.prefix, string(u.Batch.Report), u.Batch.Period().Key(), u.Batch.Fingerprint+ext)
}

func (a *S3Archiver) Archive(ctx context.Context, u Upload) error {
	key := a.Key(u)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(u.Content),
		Metadata: map[string]string{
			"batch-id":    u.Batch.ID,
			"filename":    u.Filename,
			"uploaded-by": u.Batch.UploadedBy,
		},
	})
	if err != nil {
		return fmt.Errorf("archiving %s to s3://%s/%s: %w", u.Filename, a.bucket, key, err)
	}
	a.log.Info("upload archived", zap.String("bucket", a.bucket), zap.String("key", key))
	return nil
}
