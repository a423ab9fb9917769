package storage

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/storage"
)

// GCSWriter — Writer поверх Google Cloud Storage.
//
// Клиент создаётся лениво при первой записи, чтобы процесс
// поднимался и без GCS-кредов (workflow без gcs.write работает).
type GCSWriter struct {
	bucket string

	mu     sync.Mutex
	client *storage.Client
}

// NewGCSWriter создаёт GCSWriter для указанного bucket.
// Пустой bucket — запись вернёт ErrNoBucket.
func NewGCSWriter(bucket string) *GCSWriter {
	return &GCSWriter{bucket: bucket}
}

// Write записывает объект и возвращает URI вида gs://bucket/path.
func (w *GCSWriter) Write(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if w.bucket == "" {
		return "", ErrNoBucket
	}

	client, err := w.ensureClient(ctx)
	if err != nil {
		return "", fmt.Errorf("gcs client: %w", err)
	}

	obj := client.Bucket(w.bucket).Object(path)
	wr := obj.NewWriter(ctx)
	wr.ContentType = contentType

	if _, err := wr.Write(data); err != nil {
		wr.Close()
		return "", fmt.Errorf("write object %s: %w", path, err)
	}
	if err := wr.Close(); err != nil {
		return "", fmt.Errorf("close object %s: %w", path, err)
	}

	return fmt.Sprintf("gs://%s/%s", w.bucket, path), nil
}

// ensureClient лениво создаёт GCS-клиент.
func (w *GCSWriter) ensureClient(ctx context.Context) (*storage.Client, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.client != nil {
		return w.client, nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	w.client = client
	return client, nil
}

// Close закрывает GCS-клиент, если он был создан.
func (w *GCSWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.client == nil {
		return nil
	}
	err := w.client.Close()
	w.client = nil
	return err
}
