// Package export сводит сессию в WAV-файл и при необходимости выгружает его в S3
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazadus/go-mixdown/internal/dsp"
	"github.com/hazadus/go-mixdown/internal/render"
	"github.com/hazadus/go-mixdown/internal/wavenc"
)

// DefaultName - имя сведения, если другое не задано
const DefaultName = "mixdown"

// keyPrefix - каталог сведений в бакете
const keyPrefix = "mixdowns/"

var (
	// ErrExists возвращается, если файл с таким именем уже есть, а перезапись не разрешена
	ErrExists = errors.New("файл уже существует")
	// ErrUploadDisabled возвращается при запросе выгрузки без настроенного S3
	ErrUploadDisabled = errors.New("выгрузка в S3 не настроена")
)

// Renderer рендерит снимок сессии
type Renderer interface {
	Render(ctx context.Context, snap render.Snapshot, progress render.ProgressFunc) (*dsp.Buffer, error)
}

// Uploader выгружает файлы в хранилище
type Uploader interface {
	UploadFile(ctx context.Context, reader io.Reader, key, contentType string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	DeleteFile(ctx context.Context, key string) error
}

// Stage - этап экспорта
type Stage string

// Этапы экспорта
const (
	StageRender Stage = "render"
	StageUpload Stage = "upload"
)

// ProgressFunc получает этап и его прогресс
type ProgressFunc func(stage Stage, done, total int64)

// Options - параметры экспорта
type Options struct {
	Name      string
	Overwrite bool
	Upload    bool
}

// Result содержит результат экспорта
type Result struct {
	Path     string
	URL      string
	Size     int64
	Duration time.Duration
	Peak     float64
}

// Service управляет экспортом сведений
type Service struct {
	renderer  Renderer
	uploader  Uploader
	exportDir string
	logger    *slog.Logger
}

// NewService создает сервис экспорта. uploader может быть nil.
func NewService(renderer Renderer, uploader Uploader, exportDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		renderer:  renderer,
		uploader:  uploader,
		exportDir: exportDir,
		logger:    logger,
	}
}

// CanUpload сообщает, настроена ли выгрузка
func (s *Service) CanUpload() bool {
	return s.uploader != nil
}

// Export рендерит снимок, сохраняет WAV в каталог экспорта и, если нужно, выгружает его
func (s *Service) Export(ctx context.Context, snap render.Snapshot, opts Options, progress ProgressFunc) (*Result, error) {
	if opts.Upload && s.uploader == nil {
		return nil, ErrUploadDisabled
	}

	fileName := FileName(opts.Name)
	path := filepath.Join(s.exportDir, fileName)
	if !opts.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrExists, path)
		}
	}

	key := keyPrefix + fileName
	if opts.Upload && !opts.Overwrite {
		exists, err := s.uploader.Exists(ctx, key)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: %s", ErrExists, key)
		}
	}

	buf, err := s.renderer.Render(ctx, snap, func(done, total int) {
		if progress != nil {
			progress(StageRender, int64(done), int64(total))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка рендеринга: %w", err)
	}

	data, err := wavenc.Encode(buf)
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования WAV: %w", err)
	}

	if err := writeFile(path, data); err != nil {
		return nil, err
	}

	result := &Result{
		Path:     path,
		Size:     int64(len(data)),
		Duration: buf.SampleRate().D(buf.Len()),
		Peak:     buf.Peak(),
	}
	s.logger.Info("сведение сохранено", "path", path, "size", result.Size, "peak", result.Peak)

	if !opts.Upload {
		return result, nil
	}

	// Создаем reader с отслеживанием прогресса
	var reader io.Reader = bytes.NewReader(data)
	if progress != nil {
		reader = &ProgressReader{
			Reader: reader,
			Size:   result.Size,
			OnProgress: func(read int64) {
				progress(StageUpload, read, result.Size)
			},
		}
	}

	url, err := s.uploader.UploadFile(ctx, reader, key, "audio/wav")
	if err != nil {
		return result, fmt.Errorf("ошибка загрузки в S3: %w", err)
	}
	result.URL = url
	s.logger.Info("сведение выгружено", "url", url)

	return result, nil
}

// Unpublish удаляет выгруженное сведение из S3
func (s *Service) Unpublish(ctx context.Context, name string) error {
	if s.uploader == nil {
		return ErrUploadDisabled
	}
	return s.uploader.DeleteFile(ctx, keyPrefix+FileName(name))
}

// writeFile записывает данные через временный файл в том же каталоге
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("ошибка создания каталога экспорта: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".mixdown-*.wav")
	if err != nil {
		return fmt.Errorf("ошибка создания файла: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("ошибка записи файла: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ошибка записи файла: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("ошибка сохранения файла: %w", err)
	}
	return nil
}

// FileName возвращает имя WAV-файла для сведения
func FileName(name string) string {
	name = strings.TrimSpace(strings.TrimSuffix(name, filepath.Ext(name)))
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	if name == "" {
		name = DefaultName
	}
	return name + ".wav"
}

// ProgressReader структура для отслеживания прогресса чтения
type ProgressReader struct {
	io.Reader
	Size       int64
	OnProgress func(int64)
	bytesRead  int64
}

func (pr *ProgressReader) Read(p []byte) (n int, err error) {
	n, err = pr.Reader.Read(p)
	pr.bytesRead += int64(n)
	if pr.OnProgress != nil {
		pr.OnProgress(pr.bytesRead)
	}
	return n, err
}
