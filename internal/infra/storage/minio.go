package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/phishscan/internal/domain/dataset"
)

// objectPutter is the slice of *minio.Client the archive needs.
type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// CorrectionArchive keeps every dataset correction as a JSON object so the
// retraining set can be rebuilt independently of the inference service.
type CorrectionArchive struct {
	client     objectPutter
	bucketName string
	prefix     string
}

// New buat koneksi MinIO dan pastikan bucket ada
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*CorrectionArchive, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &CorrectionArchive{client: cli, bucketName: bucket, prefix: "corrections"}, nil
}

// Submit implements dataset.Corrector.
func (a *CorrectionArchive) Submit(ctx context.Context, c dataset.Correction) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal correction: %w", err)
	}
	key := a.objectKey(c.CreatedAt)

	_, err = a.client.PutObject(ctx, a.bucketName, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
		UserMetadata: map[string]string{
			"corrected": string(c.CorrectedVerdict),
			"model":     string(c.ModelVerdict),
		},
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", a.bucketName, key, err)
	}
	return nil
}

// objectKey: corrections/YYYY/MM/DD/<uuid>.json
func (a *CorrectionArchive) objectKey(at time.Time) string {
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s.json", a.prefix, at.Year(), int(at.Month()), at.Day(), uuid.NewString())
}
