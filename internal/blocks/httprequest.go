package blocks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// BlockTypeHTTPRequest — тип блока исходящего HTTP-запроса.
const BlockTypeHTTPRequest = "http.request"

// maxResponseBody — ограничение на размер тела ответа.
const maxResponseBody = 10 * 1024 * 1024 // 10 MB

// HTTPRequestBlock — один исходящий HTTP-вызов через общий клиент run.
//
// Параметры:
//
//	{
//	    "method": "POST",           // default: GET
//	    "url": "https://...",       // обязателен
//	    "headers": {"X-A": "b"},
//	    "body": {...}               // объект/массив → JSON, строка → как есть
//	}
//
// Output:
//
//	{"status": 200, "headers": {...}, "data": ...}
//
// Таймаут фиксирован на уровне клиента; транспортные ошибки — ошибка
// узла без повторов.
type HTTPRequestBlock struct{}

// Type возвращает тип блока.
func (b *HTTPRequestBlock) Type() string {
	return BlockTypeHTTPRequest
}

// Run выполняет HTTP-запрос.
func (b *HTTPRequestBlock) Run(ctx context.Context, in *Input, rc *RunContext) (map[string]any, error) {
	url := ParamString(in.Params, "url")
	if url == "" {
		return nil, fmt.Errorf("%w: http.request requires 'url'", ErrInvalidParams)
	}

	method := strings.ToUpper(ParamString(in.Params, "method"))
	if method == "" {
		method = http.MethodGet
	}
	headers := ParamStringMap(in.Params, "headers")

	req, err := b.buildRequest(ctx, method, url, headers, in.Params["body"])
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	rc.Log.Info(ctx, fmt.Sprintf("http.request: %s %s", method, url),
		map[string]any{"method": method, "url": url})

	resp, err := rc.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	return b.parseResponse(resp)
}

// buildRequest создаёт запрос с сериализованным body.
func (b *HTTPRequestBlock) buildRequest(ctx context.Context, method, url string, headers map[string]string, body any) (*http.Request, error) {
	var reader io.Reader
	jsonBody := false

	switch v := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(v)
	case []byte:
		reader = bytes.NewReader(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("serialize body: %w", err)
		}
		reader = bytes.NewReader(data)
		jsonBody = true
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if jsonBody && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// parseResponse читает тело ответа и собирает output.
func (b *HTTPRequestBlock) parseResponse(resp *http.Response) (map[string]any, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	// JSON парсим по возможности, иначе возвращаем строку
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		data = string(raw)
	}

	headers := make(map[string]any, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	return map[string]any{
		"status":  resp.StatusCode,
		"headers": headers,
		"data":    data,
	}, nil
}
