package backup

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/mindcanvas/internal/netx"
)

const presignExpiry = 15 * time.Minute

// Seams for tests.
var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
	newS3PresignClient    = func(c *s3.Client) presigner { return s3.NewPresignClient(c) }
	uploadToPresignedURL  = netx.UploadToS3PresignedURL
)

type presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Config locates the bucket that receives backup copies. BaseEndpoint is
// set for S3-compatible stores such as MinIO and switches to path-style
// addressing.
type S3Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	Prefix       string
}

// S3Mirror uploads backups through presigned PUT URLs.
type S3Mirror struct {
	cfg        S3Config
	presign    presigner
	httpClient *http.Client
}

func NewS3Mirror(ctx context.Context, cfg S3Config, httpClient *http.Client) (*S3Mirror, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Mirror{
		cfg:        cfg,
		presign:    newS3PresignClient(client),
		httpClient: httpClient,
	}, nil
}

// Key returns the object key used for a backup file name.
func (m *S3Mirror) Key(name string) string {
	return m.cfg.Prefix + name
}

func (m *S3Mirror) Upload(ctx context.Context, name string, data []byte) error {
	bucket := m.cfg.Bucket
	key := m.Key(name)

	req, err := m.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return fmt.Errorf("presign %s: %w", key, err)
	}

	if err := uploadToPresignedURL(ctx, m.httpClient, req.URL, data); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}
