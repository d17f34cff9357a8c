package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"stockdesk/internal/models"
)

// ReportStore archives batch results so partial failures can be reviewed
// after the response is gone.
type ReportStore interface {
	ArchiveBatch(ctx context.Context, result *models.BatchResult) (string, error)
	ReportURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	EnsureBucketExists(ctx context.Context) error
	Ping(ctx context.Context) error
}

// objectClient is the subset of *minio.Client the store uses.
type objectClient interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
}

type minioReportStore struct {
	client objectClient
	bucket string
}

func NewMinioReportStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (ReportStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioReportStore{client: client, bucket: bucket}, nil
}

// ObjectName is where a batch report is stored: grouped by container, then by
// completion day.
func ObjectName(result *models.BatchResult) string {
	at := result.StartTime
	if result.CompletionTime != nil {
		at = *result.CompletionTime
	}
	return fmt.Sprintf("batches/%s/%s/%s.json", result.ContainerID, at.UTC().Format("2006/01/02"), result.OperationID)
}

func (s *minioReportStore) ArchiveBatch(ctx context.Context, result *models.BatchResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	name := ObjectName(result)
	_, err = s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("archive batch %s: %w", result.OperationID, err)
	}
	return name, nil
}

func (s *minioReportStore) ReportURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (s *minioReportStore) EnsureBucketExists(ctx context.Context) error {
	found, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !found {
		return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// Ping checks that the bucket is reachable.
func (s *minioReportStore) Ping(ctx context.Context) error {
	found, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}
