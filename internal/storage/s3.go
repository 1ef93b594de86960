// Package storage issues time-limited presigned URLs for direct image
// upload and download against S3. Credentials come from an assumed IAM
// role so the service itself never signs with long-lived keys.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/google/uuid"

	"github.com/k0723/mini3/internal/config"
)

const (
	uploadExpiry   = 15 * time.Minute
	downloadExpiry = time.Hour
)

// Presigner is what handlers depend on; the S3 implementation below is the
// only production one.
type Presigner interface {
	PresignUpload(ctx context.Context, fileType string) (url, key string, err error)
	PresignDownload(ctx context.Context, key string) (string, error)
}

type S3Presigner struct {
	bucket  string
	presign *s3.PresignClient
}

// NewS3Presigner builds a single long-lived presign client. The AssumeRole
// provider refreshes the temporary credentials as they expire.
func NewS3Presigner(ctx context.Context, cfg config.AWS) (*S3Presigner, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	stsClient := sts.NewFromConfig(awsCfg)
	provider := stscreds.NewAssumeRoleProvider(stsClient, cfg.RoleARN, func(o *stscreds.AssumeRoleOptions) {
		o.RoleSessionName = "presigner"
	})
	awsCfg.Credentials = aws.NewCredentialsCache(provider)

	client := s3.NewFromConfig(awsCfg)
	return &S3Presigner{
		bucket:  cfg.Bucket,
		presign: s3.NewPresignClient(client),
	}, nil
}

// PresignUpload returns a PUT URL for a fresh object key named after the
// requested file extension ("png", "jpg", ...).
func (p *S3Presigner) PresignUpload(ctx context.Context, fileType string) (string, string, error) {
	key := fmt.Sprintf("%s.%s", uuid.NewString(), fileType)
	contentType := "image/" + fileType

	req, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(uploadExpiry))
	if err != nil {
		return "", "", err
	}
	return req.URL, key, nil
}

func (p *S3Presigner) PresignDownload(ctx context.Context, key string) (string, error) {
	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(downloadExpiry))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
