// Package storage removes objects that were written to the repository's
// S3-compatible store but never registered with a dataset.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/dvcurate/internal/logging"
)

var ErrInvalidStorageIdentifier = errors.New("invalid storage identifier")

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// Settings locate and authenticate against the object store. Empty keys fall
// back to the default AWS credential chain.
type Settings struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// NewS3Client builds an S3 client for s.
func NewS3Client(ctx context.Context, s Settings) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(s.Region)}
	if s.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKey, s.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.Endpoint)
		}
		o.UsePathStyle = s.UsePathStyle
	}), nil
}

// Location is a parsed storage identifier of the form driver://bucket:key.
type Location struct {
	Driver string
	Bucket string
	Key    string
}

// ParseStorageIdentifier splits a storage identifier issued with an upload
// ticket.
func ParseStorageIdentifier(sid string) (Location, error) {
	driver, rest, ok := strings.Cut(sid, "://")
	if !ok || driver == "" {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidStorageIdentifier, sid)
	}
	bucket, key, ok := strings.Cut(rest, ":")
	if !ok || bucket == "" || key == "" {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidStorageIdentifier, sid)
	}
	return Location{Driver: driver, Bucket: bucket, Key: key}, nil
}

// ObjectKey returns the key under which the store keeps storageKey for a
// dataset: the persistent identifier without its scheme, then the key.
func ObjectKey(datasetPID, storageKey string) string {
	id := datasetPID
	if _, rest, ok := strings.Cut(datasetPID, ":"); ok {
		id = rest
	}
	return path.Join(id, storageKey)
}

// ObjectDeleter is the part of the S3 API the purger needs.
type ObjectDeleter interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Purger deletes temporary objects from the store.
type Purger struct {
	client ObjectDeleter
	logger logging.Logger
}

// NewPurger returns a Purger using client. A nil logger discards output.
func NewPurger(client ObjectDeleter, logger logging.Logger) *Purger {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Purger{client: client, logger: logger}
}

// Purge deletes the temporary object behind storageIdentifier.
func (p *Purger) Purge(ctx context.Context, datasetPID, storageIdentifier string) error {
	loc, err := ParseStorageIdentifier(storageIdentifier)
	if err != nil {
		return err
	}
	key := ObjectKey(datasetPID, loc.Key)

	_, err = p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete s3://%s/%s: %w", loc.Bucket, key, err)
	}

	p.logger.Info(ctx, "purged orphaned object", "bucket", loc.Bucket, "key", key)
	return nil
}
