package s3backup

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
)

// Client archives raw webhook deliveries to S3.
type Client struct {
	s3Client *s3.Client
	config   *Config
	now      func() time.Time
}

// NewClient creates a new archive client and checks the bucket is reachable.
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("webhook archive is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	client := &Client{
		s3Client: s3Client,
		config:   cfg,
		now:      time.Now,
	}

	if _, err := s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.BucketName)}); err != nil {
		return nil, fmt.Errorf("bucket %s not accessible: %w", cfg.BucketName, err)
	}

	log.Infof("[S3Archive] Archiving webhook deliveries to bucket: %s", cfg.BucketName)
	return client, nil
}

// ArchiveWebhook stores the raw payload of one delivery. Redeliveries of the
// same event overwrite the same object.
func (c *Client) ArchiveWebhook(ctx context.Context, provider, eventID string, payload []byte) error {
	key := c.config.GetObjectKey(provider, eventID, c.now())

	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(payload),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(payload))),
		Metadata: map[string]string{
			"provider": provider,
			"event-id": eventID,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to archive webhook to s3://%s/%s: %w", c.config.BucketName, key, err)
	}

	log.Debugf("[S3Archive] Stored s3://%s/%s", c.config.BucketName, key)
	return nil
}
