package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store keeps each document as a JSON object at {prefix}/{userID}.json
type S3Store struct {
	s3Client *s3.Client
	bucket   string
	region   string
	prefix   string
}

// NewS3Store creates a new S3 document store
// For LocalStack: endpoint should be "http://localhost:4566"
// For production AWS: endpoint should be ""
func NewS3Store(bucket, region, endpoint, prefix string) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket cannot be empty")
	}
	if region == "" {
		return nil, fmt.Errorf("region cannot be empty")
	}

	ctx := context.Background()

	if endpoint != "" {
		// LocalStack accepts any static credentials
		cfg, err := config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		client := s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true // Required for LocalStack
		})
		return &S3Store{s3Client: client, bucket: bucket, region: region, prefix: prefix}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Store{s3Client: s3.NewFromConfig(cfg), bucket: bucket, region: region, prefix: prefix}, nil
}

// ObjectKey returns the key a user's document lives at
func (s *S3Store) ObjectKey(userID string) (string, error) {
	if err := ValidateUserID(userID); err != nil {
		return "", err
	}
	return path.Join(s.prefix, userID+".json"), nil
}

func (s *S3Store) Load(ctx context.Context, userID string) (*Document, error) {
	key, err := s.ObjectKey(userID)
	if err != nil {
		return nil, err
	}
	if s.s3Client == nil {
		return nil, fmt.Errorf("s3 client is not initialized")
	}

	result, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to download document from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read document body: %w", err)
	}
	return decodeDocument(data)
}

func (s *S3Store) Save(ctx context.Context, userID string, doc *Document) error {
	key, err := s.ObjectKey(userID)
	if err != nil {
		return err
	}
	if s.s3Client == nil {
		return fmt.Errorf("s3 client is not initialized")
	}
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload document to S3: %w", err)
	}
	return nil
}

// Delete removes a user's document
func (s *S3Store) Delete(ctx context.Context, userID string) error {
	key, err := s.ObjectKey(userID)
	if err != nil {
		return err
	}
	if s.s3Client == nil {
		return fmt.Errorf("s3 client is not initialized")
	}

	_, err = s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete document from S3: %w", err)
	}
	return nil
}

func (s *S3Store) Close() error { return nil }
