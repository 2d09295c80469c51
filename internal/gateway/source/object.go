package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"consolenav/internal/util/jsonutil"
)

type ObjectConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Object    string
	UseSSL    bool
}

// ObjectSource reads a JSON menu manifest from S3-compatible storage.
type ObjectSource struct {
	client *minio.Client
	bucket string
	object string
}

func NewObjectSource(cfg ObjectConfig) (*ObjectSource, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	object := strings.TrimLeft(strings.TrimSpace(cfg.Object), "/")
	if object == "" {
		return nil, fmt.Errorf("s3 object is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &ObjectSource{client: client, bucket: bucket, object: object}, nil
}

func (s *ObjectSource) Load(ctx context.Context) (any, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	raw, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return nil, fmt.Errorf("%s/%s: %w", s.bucket, s.object, ErrNotFound)
		}
		return nil, err
	}
	v, err := jsonutil.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", s.bucket, s.object, err)
	}
	return v, nil
}
