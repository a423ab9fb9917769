// Package storage содержит blob-хранилище для блока gcs.write.
//
// Включает:
//   - storage.go — интерфейс Writer (write path+bytes+content type → uri)
//   - gcs.go     — реализация поверх Google Cloud Storage
//   - memory.go  — реализация в памяти для тестов и работы без bucket
package storage
