package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver stores verified webhook payloads for later audits and replays.
type S3Archiver struct {
	api    putObjectAPI
	bucket string
	now    func() time.Time
}

type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

func NewS3Archiver(cfg S3Config) *S3Archiver {
	opts := s3.Options{Region: cfg.Region}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	return &S3Archiver{
		api:    s3.New(opts),
		bucket: cfg.Bucket,
		now:    time.Now,
	}
}

// Key lays payloads out by day: webhooks/stripe/2030/01/15/<event id>.json
func (a *S3Archiver) Key(eventID string) string {
	return fmt.Sprintf("webhooks/stripe/%s/%s.json", a.now().UTC().Format("2006/01/02"), eventID)
}

func (a *S3Archiver) Archive(ctx context.Context, eventID string, payload []byte) error {
	_, err := a.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.Key(eventID)),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive webhook %s: %w", eventID, err)
	}
	return nil
}
