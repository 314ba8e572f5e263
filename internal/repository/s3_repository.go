package repository

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"imageforensics/internal/config"
)

// ArtifactStore mirrors ELA artifacts written to disk into object storage.
type ArtifactStore interface {
	UploadArtifact(ctx context.Context, key, localPath string) error
	Key(parts ...string) string
}

type s3Repository struct {
	client *s3.Client
	cfg    *config.S3Config
	log    *zap.Logger
}

func NewS3Repository(ctx context.Context, cfg *config.S3Config, log *zap.Logger) (ArtifactStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(endpointURL(cfg.Endpoint, cfg.UseSSL))
			o.UsePathStyle = true
		}
	})

	repo := &s3Repository{
		client: client,
		cfg:    cfg,
		log:    log,
	}

	if err := repo.ensureBucketExists(ctx); err != nil {
		log.Warn("Failed to ensure bucket exists", zap.Error(err))
	}

	return repo, nil
}

func endpointURL(endpoint string, useSSL bool) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

func (r *s3Repository) ensureBucketExists(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(r.cfg.BucketName),
	})
	if err == nil {
		r.log.Info("Bucket already exists", zap.String("bucket", r.cfg.BucketName))
		return nil
	}

	r.log.Info("Creating bucket", zap.String("bucket", r.cfg.BucketName))

	input := &s3.CreateBucketInput{
		Bucket: aws.String(r.cfg.BucketName),
	}
	// us-east-1 rejects an explicit location constraint.
	if r.cfg.Region != "" && r.cfg.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(r.cfg.Region),
		}
	}

	if _, err := r.client.CreateBucket(ctx, input); err != nil {
		return err
	}

	r.log.Info("Bucket created successfully", zap.String("bucket", r.cfg.BucketName))
	return nil
}

// Key joins parts under the configured prefix.
func (r *s3Repository) Key(parts ...string) string {
	return path.Join(append([]string{r.cfg.Prefix}, parts...)...)
}

func (r *s3Repository) UploadArtifact(ctx context.Context, key, localPath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.cfg.BucketName),
		Key:           aws.String(key),
		Body:          file,
		ContentType:   aws.String("image/png"),
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		r.log.Error("Failed to upload artifact to S3",
			zap.String("key", key),
			zap.Error(err))
		return err
	}

	r.log.Info("Artifact uploaded to S3",
		zap.String("key", key),
		zap.Int64("size", info.Size()))

	return nil
}
