package objstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/claude/coachlift/internal/config"
)

// unsafeKeyChars matches everything we refuse to carry into an object
// key from a user-supplied filename.
var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Store uploads coach PDFs to an S3-compatible bucket.
type Store struct {
	client        *s3.Client
	bucket        string
	endpoint      string
	publicBaseURL string
	log           *slog.Logger
}

// New builds a Store from config. A non-empty endpoint targets
// MinIO-style services and forces path-style addressing.
func New(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) (*Store, error) {
	opts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Store{
		client:        client,
		bucket:        cfg.Bucket,
		endpoint:      cfg.Endpoint,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		log:           log,
	}, nil
}

// Upload stores a PDF under a per-coach key and returns the URL the
// extraction backend can fetch it from. Keys are timestamped so a coach
// re-uploading the same filename never overwrites an earlier document.
func (s *Store) Upload(ctx context.Context, coachID, filename string, body io.Reader) (string, error) {
	key := fmt.Sprintf("%s/%d_%s", coachID, time.Now().UTC().Unix(), sanitizeFilename(filename))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}

	url := s.objectURL(key)
	s.log.Info("uploaded PDF", "key", key, "url", url)
	return url, nil
}

func (s *Store) objectURL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	if s.endpoint != "" {
		return strings.TrimRight(s.endpoint, "/") + "/" + s.bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "document.pdf"
	}
	return unsafeKeyChars.ReplaceAllString(name, "_")
}
