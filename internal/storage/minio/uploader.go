// Package minio uploads run artifacts (the generation CSV and the cached
// training latents) to S3-compatible object storage.  Upload is optional;
// the pipeline runs unchanged without it.
package minio

import (
	"context"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vagrantlab/molgen/internal/logging"
	"github.com/vagrantlab/molgen/pkg/errors"
)

// objectAPI is the slice of the minio client the uploader needs.  The
// indirection keeps the uploader testable without a live server.
type objectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Config holds the connection settings for the artifact store.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Uploader writes run artifacts into one bucket.
type Uploader struct {
	client objectAPI
	bucket string
	logger logging.Logger
}

// NewUploader connects to the object store and ensures the bucket exists.
func NewUploader(ctx context.Context, cfg Config, logger logging.Logger) (*Uploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUploadFailed, "creating object storage client")
	}
	return newUploader(ctx, client, cfg.Bucket, logger)
}

func newUploader(ctx context.Context, client objectAPI, bucket string, logger logging.Logger) (*Uploader, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	u := &Uploader{client: client, bucket: bucket, logger: logger.Named("upload")}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUploadFailed, "checking artifact bucket")
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(err, errors.CodeUploadFailed, "creating artifact bucket")
		}
		u.logger.Info("created artifact bucket", logging.String("bucket", bucket))
	}
	return u, nil
}

// Upload stores the file at localPath under objectName in the artifact
// bucket.
func (u *Uploader) Upload(ctx context.Context, localPath, objectName string) error {
	start := time.Now()
	info, err := u.client.FPutObject(ctx, u.bucket, objectName, localPath, minio.PutObjectOptions{
		ContentType: contentType(objectName),
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeUploadFailed, "uploading artifact")
	}
	u.logger.Info("uploaded artifact",
		logging.String("object", objectName),
		logging.Int("bytes", int(info.Size)),
		logging.Duration("elapsed", time.Since(start)))
	return nil
}

// UploadRun stores the artifacts of one generation run under a
// <name>/<runID>/ prefix.  Paths mapping to empty strings are skipped.
func (u *Uploader) UploadRun(ctx context.Context, name, runID string, files map[string]string) error {
	for objectName, localPath := range files {
		if localPath == "" {
			continue
		}
		key := path.Join(name, runID, objectName)
		if err := u.Upload(ctx, localPath, key); err != nil {
			return err
		}
	}
	return nil
}

func contentType(objectName string) string {
	switch path.Ext(objectName) {
	case ".csv":
		return "text/csv"
	case ".npy":
		return "application/octet-stream"
	default:
		return "application/octet-stream"
	}
}
