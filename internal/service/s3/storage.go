// storage.go
package s3

import (
	"context"
	"time"
)

// Storage определяет интерфейс для работы с S3-совместимым хранилищем.
// Байты видео через сервис не проходят: клиент загружает части и скачивает
// объект напрямую по подписанным ссылкам.
type Storage interface {
	CreateMultipartUpload(ctx context.Context, key string) (string, error)
	PresignUploadPart(ctx context.Context, uploadID string, key string, partNumber int, ttl time.Duration) (string, error)
	CompleteMultipartUpload(ctx context.Context, uploadID string, key string, parts []CompletedPart) error
	AbortMultipartUpload(ctx context.Context, uploadID string, key string) error
	PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

// CompletedPart представляет загруженную часть файла
type CompletedPart struct {
	PartNumber int
	ETag       string
}
