package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/VadimVthvPro/PRO-pitashka/internal/config"
	"github.com/VadimVthvPro/PRO-pitashka/pkg/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/oklog/ulid/v2"
)

// PhotoArchive складывает фото еды в S3-совместимое хранилище (MinIO, SeaweedFS)
type PhotoArchive struct {
	client *s3.Client
	bucket string
}

// NewPhotoArchive создаёт клиента и бакет, если его ещё нет
func NewPhotoArchive(ctx context.Context, cfg config.StorageConfig) (*PhotoArchive, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	a := &PhotoArchive{client: client, bucket: cfg.Bucket}
	if err := a.ensureBucket(ctx); err != nil {
		return nil, err
	}
	utils.Log.Infof("Photo archive ready: %s/%s", cfg.Endpoint, cfg.Bucket)
	return a, nil
}

// PhotoKey - ключ объекта: photos/<user>/<ulid>.jpg, ulid упорядочен по времени
func PhotoKey(userID int64) string {
	return fmt.Sprintf("photos/%d/%s.jpg", userID, ulid.Make().String())
}

// SavePhoto загружает фото и возвращает ключ объекта
func (a *PhotoArchive) SavePhoto(ctx context.Context, userID int64, image []byte) (string, error) {
	key := PhotoKey(userID)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(image),
		ContentType: aws.String(http.DetectContentType(image)),
	})
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}
	return key, nil
}

func (a *PhotoArchive) ensureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}
	if _, err := a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)}); err != nil {
		return fmt.Errorf("create bucket %s: %w", a.bucket, err)
	}
	return nil
}
