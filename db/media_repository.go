package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"github.com/techagentng/challanx/config"
)

// MediaRepository turns the media reference stored on a report into a URL
// detection providers can fetch.
type MediaRepository interface {
	ResolveMediaURL(ctx context.Context, ref string) (string, error)
}

// Presigner is the part of the S3 presign client the repository needs.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var ErrMediaStoreDisabled = errors.New("media storage is not configured")

type mediaRepo struct {
	presigner Presigner
	bucket    string
	ttl       time.Duration
}

func NewMediaRepo(presigner Presigner, bucket string, ttl time.Duration) MediaRepository {
	return &mediaRepo{presigner: presigner, bucket: bucket, ttl: ttl}
}

func createS3Client(c *config.Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.AWSRegion)}
	if c.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AWSAccessKeyID,
			c.AWSSecretAccessKey,
			"",
		)))
	}
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config, %v", err)
	}

	return s3.NewFromConfig(cfg), nil
}

// NewS3MediaRepo presigns object keys against the configured bucket. Without
// a bucket only absolute URLs can be resolved.
func NewS3MediaRepo(c *config.Config) (MediaRepository, error) {
	if c.AWSBucket == "" {
		return NewMediaRepo(nil, "", c.PresignTTL), nil
	}
	client, err := createS3Client(c)
	if err != nil {
		return nil, err
	}
	return NewMediaRepo(s3.NewPresignClient(client), c.AWSBucket, c.PresignTTL), nil
}

func (m *mediaRepo) ResolveMediaURL(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("empty media reference")
	}
	if u, err := url.Parse(ref); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return ref, nil
	}
	if m.presigner == nil {
		return "", ErrMediaStoreDisabled
	}

	req, err := m.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(strings.TrimPrefix(ref, "/")),
	}, s3.WithPresignExpires(m.ttl))
	if err != nil {
		return "", errors.Wrapf(err, "presign %s", ref)
	}
	return req.URL, nil
}
