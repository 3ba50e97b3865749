package avatar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gosimple/slug"
)

// KeyPrefix is the object key prefix for avatars.
const KeyPrefix = "avatars/"

// ErrEmptyImage is returned when the upload has no content.
var ErrEmptyImage = errors.New("avatar image is empty")

// S3Config configures S3Store.
type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	// PublicURL is the base URL objects are served from. Defaults to Endpoint/Bucket.
	PublicURL string
	// Size is the square edge in pixels requested from the image host.
	Size int
}

// objectPutter is the subset of the S3 client used by S3Store.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads avatars to an S3-compatible bucket.
// Each user has a single object that is overwritten on upload.
type S3Store struct {
	client    objectPutter
	bucket    string
	publicURL string
	size      int
	now       func() time.Time
}

// NewS3Store creates an S3Store with static credentials.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newS3Store(client, cfg)
}

func newS3Store(client objectPutter, cfg S3Config) (*S3Store, error) {
	publicURL := cfg.PublicURL
	if publicURL == "" {
		if cfg.Endpoint == "" {
			return nil, errors.New("public url or endpoint is required")
		}
		publicURL = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}

	size := cfg.Size
	if size <= 0 {
		size = 250
	}

	return &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		size:      size,
		now:       time.Now,
	}, nil
}

// ObjectKey returns the object key for a user's avatar. Usernames are not
// unique, so the key always carries the user ID; the slugged username only
// keeps keys readable.
func ObjectKey(username, userID string) string {
	id := strings.ToLower(userID)
	s := slug.Make(username)
	switch {
	case s == "":
		return KeyPrefix + id
	case id == "":
		return KeyPrefix + s
	}
	return KeyPrefix + s + "-" + id
}

// Upload stores the image under the user's key and returns its public URL.
// The URL carries a version so caches see the new image.
func (s *S3Store) Upload(ctx context.Context, username, userID string, r io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := ObjectKey(username, userID)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=86400"),
	})
	if err != nil {
		return "", fmt.Errorf("put avatar object: %w", err)
	}

	return s.url(key, s.now().Unix()), nil
}

func (s *S3Store) url(key string, version int64) string {
	return fmt.Sprintf("%s/%s?v=%d&w=%d&h=%d&fit=fill", s.publicURL, key, version, s.size, s.size)
}
