package storage

import (
	"context"
	"errors"
)

// ErrNoBucket — blob-хранилище не сконфигурировано.
var ErrNoBucket = errors.New("storage bucket not configured")

// Writer — writer в blob-хранилище, привязанный к одному bucket.
//
// Write записывает data по пути path с указанным content type
// и возвращает URI записанного объекта.
type Writer interface {
	Write(ctx context.Context, path string, data []byte, contentType string) (string, error)
}
