// Package storage archives finished report exports in S3-compatible object
// storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// putObjectAPI is the part of *s3.Client the archive uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type ReportArchive struct {
	client putObjectAPI
	bucket string
	prefix string
	log    *zap.Logger
}

// NewReportArchive builds an S3 client. Static keys are used when given,
// otherwise the default AWS credential chain. A custom endpoint switches to
// path-style addressing for MinIO and similar servers.
func NewReportArchive(ctx context.Context, cfg S3Config, log *zap.Logger) (*ReportArchive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newReportArchive(client, cfg.Bucket, log), nil
}

func newReportArchive(client putObjectAPI, bucket string, log *zap.Logger) *ReportArchive {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReportArchive{client: client, bucket: bucket, prefix: "exports/", log: log}
}

// Store uploads one export's JSON and returns its s3:// location.
func (a *ReportArchive) Store(ctx context.Context, exportID string, report []byte) (string, error) {
	key := a.prefix + strings.TrimPrefix(exportID, "/") + ".json"
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(report),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	a.log.Info("export archived", zap.String("bucket", a.bucket), zap.String("key", key), zap.Int("bytes", len(report)))
	return "s3://" + a.bucket + "/" + key, nil
}
