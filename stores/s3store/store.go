// Package s3store stores profile documents as JSON objects in an
// S3-compatible bucket (AWS S3, MinIO). The object key is the document
// path with a .json suffix.
package s3store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	ap "github.com/panyam/authpage"
)

// ObjectAPI is the subset of *s3.Client the store uses
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ClientOptions configures NewClient. Static credentials are used when
// AccessKey is set, otherwise the default AWS credential chain.
type ClientOptions struct {
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// NewClient builds an S3 client. A BaseEndpoint switches to path-style
// addressing, which MinIO needs.
func NewClient(ctx context.Context, opts ClientOptions) (*s3.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// ProfileStore implements ap.ProfileStore over a bucket
type ProfileStore struct {
	client ObjectAPI
	bucket string
}

var (
	_ ap.ProfileStore  = (*ProfileStore)(nil)
	_ ap.ProfileReader = (*ProfileStore)(nil)
)

func NewProfileStore(client ObjectAPI, bucket string) *ProfileStore {
	return &ProfileStore{client: client, bucket: bucket}
}

// ObjectKey returns the key a profile is stored under
func ObjectKey(path ap.ProfilePath) string {
	return path.String() + ".json"
}

func (s *ProfileStore) WriteProfile(ctx context.Context, path ap.ProfilePath, record ap.ProfileRecord) error {
	if err := path.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(ObjectKey(path)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put profile %s: %w", path, err)
	}
	return nil
}

func (s *ProfileStore) ReadProfile(ctx context.Context, path ap.ProfilePath) (*ap.ProfileRecord, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ObjectKey(path)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ap.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile %s: %w", path, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}
	var record ap.ProfileRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	return &record, nil
}
