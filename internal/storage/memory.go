package storage

import (
	"context"
	"fmt"
	"sync"
)

// Object — объект, записанный в MemoryWriter.
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryWriter — Writer в памяти.
//
// Используется в тестах и при работе без сконфигурированного bucket.
// Потокобезопасен.
type MemoryWriter struct {
	bucket string

	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemoryWriter создаёт MemoryWriter с именем bucket для URI.
func NewMemoryWriter(bucket string) *MemoryWriter {
	if bucket == "" {
		bucket = "memory"
	}
	return &MemoryWriter{
		bucket:  bucket,
		objects: make(map[string]Object),
	}
}

// Write сохраняет объект в памяти и возвращает URI вида mem://bucket/path.
func (w *MemoryWriter) Write(_ context.Context, path string, data []byte, contentType string) (string, error) {
	buf := make([]byte, len(data))
	copy(buf, data)

	w.mu.Lock()
	w.objects[path] = Object{Data: buf, ContentType: contentType}
	w.mu.Unlock()

	return fmt.Sprintf("mem://%s/%s", w.bucket, path), nil
}

// Get возвращает записанный объект.
func (w *MemoryWriter) Get(path string) (Object, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	obj, ok := w.objects[path]
	return obj, ok
}

// Len возвращает количество записанных объектов.
func (w *MemoryWriter) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.objects)
}
