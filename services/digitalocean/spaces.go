package digitalocean

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

// ErrUnsupportedImage is returned for uploads that are not a known image type
var ErrUnsupportedImage = errors.New("unsupported image type")

// SpacesClient handles DigitalOcean Spaces operations
type SpacesClient struct {
	s3Client *s3.S3
	bucket   string
	region   string
	endpoint string
	cdnURL   string
}

// NewSpacesClient creates a new Spaces client
func NewSpacesClient(config SpacesConfig) (*SpacesClient, error) {
	if !config.IsConfigured() {
		return nil, ErrSpacesNotConfigured
	}
	config = config.withDefaults()

	// Create AWS session with DigitalOcean Spaces endpoint
	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
		Endpoint:         aws.String(config.Endpoint),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Spaces session: %w", err)
	}

	return &SpacesClient{
		s3Client: s3.New(sess),
		bucket:   config.Bucket,
		region:   config.Region,
		endpoint: config.Endpoint,
		cdnURL:   strings.TrimRight(config.CDNURL, "/"),
	}, nil
}

// UploadFile uploads a file to Spaces and returns its public URL
func (s *SpacesClient) UploadFile(ctx context.Context, key string, data io.ReadSeeker, contentType string) (string, error) {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        aws.ReadSeekCloser(data),
		ACL:         aws.String("public-read"), // Make publicly accessible
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return s.GetFileURL(key), nil
}

// UploadImage stores an image under prefix, naming it after the original filename
func (s *SpacesClient) UploadImage(ctx context.Context, prefix, filename string, data io.ReadSeeker) (string, error) {
	contentType, err := ImageContentType(filename)
	if err != nil {
		return "", err
	}
	return s.UploadFile(ctx, GenerateKey(prefix, filename), data, contentType)
}

// DeleteFile deletes a file from Spaces
func (s *SpacesClient) DeleteFile(ctx context.Context, key string) error {
	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// KeyFromURL returns the object key behind a URL produced by GetFileURL
func (s *SpacesClient) KeyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, s.GetFileURL(""))
	return key, ok && key != ""
}

// DeleteImage removes an image previously returned by UploadImage
func (s *SpacesClient) DeleteImage(ctx context.Context, url string) error {
	key, ok := s.KeyFromURL(url)
	if !ok {
		return fmt.Errorf("url %q is not stored in bucket %s", url, s.bucket)
	}
	return s.DeleteFile(ctx, key)
}

// GetFileURL returns the public URL for a file
func (s *SpacesClient) GetFileURL(key string) string {
	if s.cdnURL != "" {
		return fmt.Sprintf("%s/%s", s.cdnURL, key)
	}
	return fmt.Sprintf("https://%s.%s/%s", s.bucket, s.endpoint, key)
}

// GenerateKey generates a unique key for file storage
func GenerateKey(prefix, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, base)
	if base == "" {
		base = "file"
	}

	return fmt.Sprintf("%s/%d_%s_%s%s", prefix, time.Now().Unix(), uuid.NewString()[:8], base, ext)
}

// ImageContentType returns the content type for an image filename
func ImageContentType(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg", nil
	case ".png":
		return "image/png", nil
	case ".gif":
		return "image/gif", nil
	case ".webp":
		return "image/webp", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, filepath.Ext(filename))
	}
}
