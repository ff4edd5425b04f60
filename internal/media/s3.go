package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"circle/internal/middleware"
)

// S3Config holds connection settings for the S3-compatible object store.
type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string // optional, for MinIO and friends
	PublicBaseURL string
}

// S3Store implements Store backed by an S3-compatible service.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	baseURL  string
}

// NewS3Store configures an uploader targeting the provided object store.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("media: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if strings.TrimSpace(cfg.Endpoint) != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.Endpoint,
					SigningRegion: cfg.Region,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("media: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return &S3Store{
		client:   client,
		uploader: uploader,
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// Upload stores the content under the given key and returns its public URL.
func (s *S3Store) Upload(ctx context.Context, name string, contentType string, r io.Reader) (string, error) {
	key := strings.TrimLeft(name, "/")
	if key == "" {
		return "", fmt.Errorf("media: empty key")
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        manager.ReadSeekCloser(r),
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		middleware.MediaOperations.WithLabelValues("upload", "error").Inc()
		return "", fmt.Errorf("media: upload %s: %w", key, err)
	}
	middleware.MediaOperations.WithLabelValues("upload", "ok").Inc()

	if s.baseURL == "" {
		return key, nil
	}
	return fmt.Sprintf("%s/%s", s.baseURL, key), nil
}

// Delete removes the object addressed by a URL previously returned by Upload.
func (s *S3Store) Delete(ctx context.Context, url string) error {
	key := s.keyFromURL(url)
	if key == "" {
		return fmt.Errorf("%w: %q", ErrNotManaged, url)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		middleware.MediaOperations.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("media: delete %s: %w", key, err)
	}
	middleware.MediaOperations.WithLabelValues("delete", "ok").Inc()
	return nil
}

func (s *S3Store) keyFromURL(url string) string {
	if s.baseURL != "" && strings.HasPrefix(url, s.baseURL+"/") {
		return strings.TrimPrefix(url, s.baseURL+"/")
	}
	// Bare keys are returned when no public base URL is configured.
	if !strings.Contains(url, "://") {
		return strings.TrimLeft(url, "/")
	}
	return ""
}
