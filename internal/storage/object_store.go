package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBaseURL   string
	StorageClass    string
}

// ObjectStore archives daily reconciliation reports to an S3-compatible
// bucket.
type ObjectStore struct {
	bucket       string
	publicBase   string
	storageClass string
	client       *s3.Client
}

func NewObjectStore(ctx context.Context, cfg Config) (*ObjectStore, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("object store endpoint is required")
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "auto"
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("object store bucket is required")
	}
	publicBase := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if publicBase == "" {
		return nil, fmt.Errorf("object store public base url is required")
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...any) (aws.Endpoint, error) {
		if service == s3.ServiceID {
			return aws.Endpoint{URL: endpoint, HostnameImmutable: true}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			strings.TrimSpace(cfg.AccessKeyID),
			strings.TrimSpace(cfg.SecretAccessKey),
			"",
		)),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// S3-compatible stores generally require path-style addressing.
		o.UsePathStyle = true
	})

	return &ObjectStore{
		bucket:       strings.TrimSpace(cfg.Bucket),
		publicBase:   publicBase,
		storageClass: strings.TrimSpace(cfg.StorageClass),
		client:       client,
	}, nil
}

// PutReport uploads a report under the given key and returns its public URL.
func (o *ObjectStore) PutReport(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(o.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	}
	if o.storageClass != "" {
		input.StorageClass = types.StorageClass(o.storageClass)
	}
	if _, err := o.client.PutObject(ctx, input); err != nil {
		return "", err
	}
	return o.publicBase + "/" + strings.TrimLeft(key, "/"), nil
}
