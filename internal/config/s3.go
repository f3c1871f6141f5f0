package config

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the bucket student photographs live in.
type S3Config struct {
	Client          *s3.Client
	Bucket          string
	PhotoPrefix     string
	DefaultPhotoKey string
}

// NewS3Config builds a client from AWS_* variables. Static credentials are
// only used when both key id and secret are set; otherwise the default
// provider chain applies.
func NewS3Config(ctx context.Context) (*S3Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(os.Getenv("AWS_REGION")),
	}
	if id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"); id != "" && secret != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(id, secret, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &S3Config{
		Client:          s3.NewFromConfig(cfg),
		Bucket:          os.Getenv("S3_BUCKET_NAME"),
		PhotoPrefix:     getEnv("S3_PHOTO_PREFIX", "photographs/"),
		DefaultPhotoKey: getEnv("S3_DEFAULT_PHOTO_KEY", "photographs/default-avatar.jpg"),
	}, nil
}
