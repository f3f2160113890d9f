// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/digitalhippo/hippo-backend/internal/access"
	"github.com/digitalhippo/hippo-backend/internal/config"
	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/store"
	"github.com/digitalhippo/hippo-backend/internal/utils"
)

const (
	productFilesFolder = "product_files"
	downloadURLTTL     = 15 * time.Minute
)

// StorageService keeps product file blobs in S3, or on local disk when no
// bucket credentials are configured, and records them as product_files.
type StorageService struct {
	engine   *Engine
	s3Client *s3.S3
	config   *config.Config
}

// FileDownload locates a product file for a reader. S3 files carry a
// presigned URL; local files carry a path on disk for the handler to stream.
type FileDownload struct {
	URL      string
	Path     string
	Filename string
	MimeType string
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// Upload describes one incoming file.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func NewStorageService(engine *Engine, config *config.Config) (*StorageService, error) {
	if config.AWS.AccessKeyID == "" || config.AWS.S3Bucket == "" {
		// Return service without S3 for local development
		return &StorageService{engine: engine, config: config}, nil
	}

	// Create AWS session
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		engine:   engine,
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

func (s *StorageService) maxSize() int64 {
	return int64(s.config.AWS.MaxUploadMB) * 1024 * 1024
}

// UploadProductFile stores the blob and creates the product_files record
// owned by the actor. Storage fields are stamped by the server; the actor
// only needs permission to create product files.
func (s *StorageService) UploadProductFile(ctx context.Context, actor access.Actor, upload Upload) (store.Record, error) {
	if err := s.engine.Check(actor, models.CollectionProductFiles, access.OpCreate); err != nil {
		return store.Record{}, err
	}
	if upload.Filename == "" {
		return store.Record{}, utils.FieldInvalid("file", "required", "file is required")
	}

	body, err := io.ReadAll(io.LimitReader(upload.Body, s.maxSize()+1))
	if err != nil {
		return store.Record{}, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(body)) > s.maxSize() {
		return store.Record{}, utils.FieldInvalid("file", "max", "file exceeds the maximum size of %d MB", s.config.AWS.MaxUploadMB)
	}

	contentType := upload.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(body)
	}

	result, err := s.put(ctx, body, s.generateFileName(upload.Filename), contentType)
	if err != nil {
		return store.Record{}, err
	}

	rec, err := s.engine.Create(ctx, actor.AsTrusted(), models.CollectionProductFiles, models.JSONB{
		"filename":   filepath.Base(upload.Filename),
		"mimeType":   result.MimeType,
		"filesize":   result.Size,
		"url":        result.URL,
		"storageKey": result.Key,
	})
	if err != nil {
		if delErr := s.DeleteFile(ctx, result.Key); delErr != nil {
			logrus.WithError(delErr).WithField("key", result.Key).Warn("failed to remove orphaned upload")
		}
		return store.Record{}, err
	}

	if s.s3Client == nil {
		// Local blobs have no public address; point at the authorized download route.
		rec, err = s.engine.Update(ctx, actor.AsTrusted(), models.CollectionProductFiles, rec.ID, models.JSONB{
			"url": fmt.Sprintf("%s/api/product_files/%s/download", s.config.Server.PublicURL, rec.ID),
		})
		if err != nil {
			return store.Record{}, err
		}
	}
	return s.engine.Redact(actor, rec), nil
}

// Download resolves a product file the actor can read.
func (s *StorageService) Download(ctx context.Context, actor access.Actor, id string) (*FileDownload, error) {
	rec, err := s.engine.FindByID(ctx, actor, models.CollectionProductFiles, id)
	if err != nil {
		return nil, err
	}

	key := rec.Fields.String("storageKey")
	if key == "" || !strings.HasPrefix(key, productFilesFolder+"/") || strings.Contains(key, "..") {
		return nil, fmt.Errorf("product file %s has no stored blob: %w", id, store.ErrNotFound)
	}
	dl := &FileDownload{Filename: rec.Fields.String("filename"), MimeType: rec.Fields.String("mimeType")}

	if s.s3Client != nil {
		dl.URL, err = s.GeneratePresignedURL(key, downloadURLTTL)
		if err != nil {
			return nil, err
		}
		return dl, nil
	}

	dl.Path = filepath.Join(s.config.AWS.LocalUploadDir, filepath.FromSlash(key))
	if _, err := os.Stat(dl.Path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("product file %s is missing on disk: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to stat product file: %w", err)
	}
	return dl, nil
}

func (s *StorageService) put(ctx context.Context, body []byte, key, contentType string) (*UploadResult, error) {
	// Upload to S3 or local storage
	if s.s3Client != nil {
		return s.uploadToS3(ctx, body, key, contentType)
	}
	return s.uploadToLocal(body, key, contentType)
}

func (s *StorageService) uploadToS3(ctx context.Context, body []byte, key, contentType string) (*UploadResult, error) {
	// Prepare S3 upload parameters
	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	}

	// Upload to S3
	if _, err := s.s3Client.PutObjectWithContext(ctx, params); err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		URL:      s.getS3URL(key),
		Key:      key,
		Size:     int64(len(body)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) uploadToLocal(body []byte, key, contentType string) (*UploadResult, error) {
	path := filepath.Join(s.config.AWS.LocalUploadDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}

	return &UploadResult{
		Key:      key,
		Size:     int64(len(body)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) DeleteFile(ctx context.Context, key string) error {
	if s.s3Client == nil {
		path := filepath.Join(s.config.AWS.LocalUploadDir, filepath.FromSlash(key))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete local file: %w", err)
		}
		return nil
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})

	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	return nil
}

func (s *StorageService) GeneratePresignedURL(key string, expiration time.Duration) (string, error) {
	if s.s3Client == nil {
		return "", fmt.Errorf("S3 client not configured")
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url, nil
}

func (s *StorageService) generateFileName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	timestamp := time.Now().Format("20060102")
	return fmt.Sprintf("%s/%s_%s%s", productFilesFolder, timestamp, uuid.NewString()[:8], ext)
}

func (s *StorageService) getS3URL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.CloudFrontURL, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}
