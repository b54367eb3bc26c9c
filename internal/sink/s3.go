package sink

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Config holds the configuration for S3 persistence.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: for custom S3-compatible endpoints
	Prefix          string // Optional: key prefix, e.g. "exports/"
	AccessKeyID     string // Optional: AWS access key ID
	SecretAccessKey string // Optional: AWS secret access key
}

// Compile-time check that S3Sink implements Sink.
var _ Sink = (*S3Sink)(nil)

// S3Sink uploads finished exports to an S3 bucket.
type S3Sink struct {
	client   *s3.Client
	bucket   string
	region   string
	endpoint string
	prefix   string
}

// permissionCodes are S3 error codes that mean the write was refused.
var permissionCodes = map[string]bool{
	"AccessDenied":          true,
	"Forbidden":             true,
	"InvalidAccessKeyId":    true,
	"SignatureDoesNotMatch": true,
	"AllAccessDisabled":     true,
	"AccountProblem":        true,
}

// NewS3Sink creates a new S3Sink.
func NewS3Sink(cfg S3Config) (*S3Sink, error) {
	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(cfg.Region))

	// Use static credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Sink{
		client:   s3.NewFromConfig(awsCfg, clientOpts...),
		bucket:   cfg.Bucket,
		region:   cfg.Region,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		prefix:   cfg.Prefix,
	}, nil
}

// Persist uploads the file under prefix + base name and returns its URL.
func (s *S3Sink) Persist(ctx context.Context, filePath string) (string, error) {
	size, err := checkFile(filePath)
	if err != nil {
		return "", err
	}

	f, err := os.Open(filePath) // #nosec G304 - filePath is an export written by this process
	if err != nil {
		return "", newPersistError("open export", err)
	}
	defer func() { _ = f.Close() }()

	key := path.Join(s.prefix, filepath.Base(filePath))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType(filePath)),
	})
	if err != nil {
		return "", classifyS3Error(err)
	}

	return s.objectURL(key), nil
}

func (s *S3Sink) objectURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, escaped)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, escaped)
}

func classifyS3Error(err error) *PersistError {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if permissionCodes[apiErr.ErrorCode()] {
			return &PersistError{Kind: KindPermissionDenied, Detail: apiErr.ErrorCode(), Err: err}
		}
		return &PersistError{Kind: KindUnknown, Detail: apiErr.ErrorCode(), Err: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &PersistError{Kind: KindUnknown, Detail: "upload interrupted", Err: err}
	}
	return &PersistError{Kind: KindIO, Detail: "upload to S3", Err: err}
}

func contentType(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".mov":
		return "video/quicktime"
	case ".mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}
