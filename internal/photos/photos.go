// Package photos stores chore evidence photos in S3-compatible object
// storage and hands back public URLs for the assignment rows.
package photos

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const bucketContentType = "image/jpeg"

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds S3-compatible storage configuration.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	PublicURL string // base URL photos are served from; defaults to endpoint/bucket
}

// Store uploads chore photos to a single bucket.
type Store struct {
	cfg    Config
	client s3Client
}

// NewStore creates a photo store. It returns nil if the configuration is
// incomplete; callers treat a nil store as "photo uploads disabled".
func NewStore(cfg Config) *Store {
	if cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil
	}
	return &Store{cfg: cfg, client: newS3Client(cfg)}
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// ObjectKey builds the storage key for an assignment photo:
// {householdID}/{assignmentID}-{unix millis}.jpg
func ObjectKey(householdID, assignmentID int64, now time.Time) string {
	return fmt.Sprintf("%d/%d-%d.jpg", householdID, assignmentID, now.UnixMilli())
}

// Upload stores a JPEG photo and returns its public URL.
func (s *Store) Upload(ctx context.Context, householdID, assignmentID int64, data []byte) (string, error) {
	key := ObjectKey(householdID, assignmentID, time.Now())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(bucketContentType),
	})
	if err != nil {
		return "", fmt.Errorf("put photo: %w", err)
	}

	return s.publicURL(key), nil
}

// Delete removes a photo by key.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

func (s *Store) publicURL(key string) string {
	base := s.cfg.PublicURL
	if base == "" {
		base = strings.TrimSuffix(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket
	}
	return strings.TrimSuffix(base, "/") + "/" + key
}
