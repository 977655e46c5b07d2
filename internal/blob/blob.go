package blob

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// Client is the narrow S3 surface the store needs, kept as an interface for
// testability.
type Client interface {
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
}

// Configured reports whether the config carries enough to reach a bucket.
func (c Config) Configured() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Store puts and deletes binary objects in an S3-compatible bucket and maps
// between object keys and public URLs.
type Store struct {
	cfg    Config
	client Client
}

// New creates a Store backed by a real S3 client.
func New(cfg Config) *Store {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return &Store{cfg: cfg, client: s3.New(opts)}
}

// NewWithClient creates a Store with an injected client, for tests.
func NewWithClient(cfg Config, client Client) *Store {
	return &Store{cfg: cfg, client: client}
}

// Key builds a collision-resistant object key for an upload: scoped to the
// owner, a fresh uuid, and the sanitized original filename so the object
// stays recognizable in the bucket.
func Key(userID int64, filename string) string {
	return fmt.Sprintf("u%d/%s-%s", userID, uuid.NewString(), sanitize(filename))
}

// Put stores the object and returns its URL.
func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return s.URLForKey(key), nil
}

// Delete removes the object behind the given URL, retrying transient
// failures with exponential backoff.
func (s *Store) Delete(ctx context.Context, url string) error {
	key, err := s.KeyForURL(url)
	if err != nil {
		return err
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.cfg.Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// URLForKey returns the public URL for an object key.
func (s *Store) URLForKey(key string) string {
	if s.cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.cfg.Endpoint, "/"), s.cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}

// KeyForURL maps a URL produced by URLForKey back to its object key.
func (s *Store) KeyForURL(url string) (string, error) {
	var prefix string
	if s.cfg.Endpoint != "" {
		prefix = fmt.Sprintf("%s/%s/", strings.TrimSuffix(s.cfg.Endpoint, "/"), s.cfg.Bucket)
	} else {
		prefix = fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.cfg.Bucket, s.cfg.Region)
	}
	key := strings.TrimPrefix(url, prefix)
	if key == url || key == "" {
		return "", fmt.Errorf("url %q does not belong to bucket %q", url, s.cfg.Bucket)
	}
	return key, nil
}

// sanitize keeps object keys to a safe character set, replacing everything
// else with '_'.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
