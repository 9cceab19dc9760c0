// Package streaming содержит потоковую загрузку звуковых файлов по HTTP
package streaming

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"path"
	"time"
)

// DefaultBufferSize - размер буфера чтения по умолчанию
const DefaultBufferSize = 256 * 1024

// Reader - буферизованный поток ответа HTTP
type Reader struct {
	reader *bufio.Reader
	resp   *http.Response
	name   string
}

// newClient создает HTTP клиент без общего таймаута: файл может загружаться долго,
// ограничены только установка соединения и ожидание заголовков
func newClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       300 * time.Second,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   2,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// NewReader открывает поток по URL
func NewReader(ctx context.Context, rawURL string, bufferSize int) (*Reader, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Accept-Encoding", "identity") // Отключаем сжатие для потока
	req.Header.Set("User-Agent", "go-mixdown/1.0")

	resp, err := newClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, fmt.Errorf("ошибка HTTP: %s", resp.Status)
	}

	return &Reader{
		reader: bufio.NewReaderSize(resp.Body, bufferSize),
		resp:   resp,
		name:   FileName(rawURL),
	}, nil
}

// Read реализует интерфейс io.Reader
func (sr *Reader) Read(p []byte) (n int, err error) {
	return sr.reader.Read(p)
}

// Close закрывает соединение
func (sr *Reader) Close() error {
	return sr.resp.Body.Close()
}

// Size возвращает размер файла из заголовков ответа или -1, если он неизвестен
func (sr *Reader) Size() int64 {
	return sr.resp.ContentLength
}

// Name возвращает имя файла из URL
func (sr *Reader) Name() string {
	return sr.name
}

// FileName извлекает имя файла из пути URL
func FileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return rawURL
	}
	name, err := url.PathUnescape(path.Base(u.Path))
	if err != nil {
		return path.Base(u.Path)
	}
	return name
}
