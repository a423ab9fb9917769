package blocks

import (
	"context"
	"encoding/json"
	"fmt"
)

// BlockTypeGCSWrite — тип блока записи в blob-хранилище.
const BlockTypeGCSWrite = "gcs.write"

// GCSWriteBlock — запись содержимого в blob-хранилище run-контекста.
//
// Параметры:
//
//	{
//	    "path": "reports/out.json",  // обязателен
//	    "content": ...,              // любое JSON-значение
//	    "as_json": true              // принудительная JSON-сериализация
//	}
//
// Output:
//
//	{"gcs_uri": "gs://bucket/path", "size": 123}
type GCSWriteBlock struct{}

// Type возвращает тип блока.
func (b *GCSWriteBlock) Type() string {
	return BlockTypeGCSWrite
}

// Run сериализует content и записывает его через rc.Blobs.
func (b *GCSWriteBlock) Run(ctx context.Context, in *Input, rc *RunContext) (map[string]any, error) {
	path := ParamString(in.Params, "path")
	if path == "" {
		return nil, fmt.Errorf("%w: gcs.write requires 'path'", ErrInvalidParams)
	}

	content := in.Params["content"]
	asJSON := ParamBool(in.Params, "as_json")

	data, contentType, err := serializeContent(content, asJSON)
	if err != nil {
		return nil, fmt.Errorf("serialize content: %w", err)
	}

	uri, err := rc.Blobs.Write(ctx, path, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("blob write: %w", err)
	}

	rc.Log.Info(ctx, fmt.Sprintf("gcs.write: wrote %s", uri),
		map[string]any{"uri": uri, "size": len(data)})

	return map[string]any{
		"gcs_uri": uri,
		"size":    len(data),
	}, nil
}

// serializeContent выбирает байты и content type для записи.
//
// as_json форсирует JSON; иначе объекты/массивы сериализуются в JSON,
// байты пишутся как есть, всё остальное — как текст.
func serializeContent(content any, asJSON bool) ([]byte, string, error) {
	if asJSON {
		data, err := json.Marshal(content)
		if err != nil {
			return nil, "", err
		}
		return data, "application/json", nil
	}

	switch v := content.(type) {
	case nil:
		return []byte{}, "text/plain; charset=utf-8", nil
	case []byte:
		return v, "application/octet-stream", nil
	case string:
		return []byte(v), "text/plain; charset=utf-8", nil
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return data, "application/json", nil
	default:
		return []byte(fmt.Sprintf("%v", v)), "text/plain; charset=utf-8", nil
	}
}
