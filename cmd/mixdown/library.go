package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazadus/go-mixdown/internal/export"
	"github.com/hazadus/go-mixdown/internal/library"
	"github.com/hazadus/go-mixdown/internal/render"
)

// recordingExporter экспортирует сведение и записывает результат в библиотеку
type recordingExporter struct {
	service *export.Service
	app     *Application
}

// newExporter создает экспорт с записью в библиотеку
func (app *Application) newExporter() (*recordingExporter, error) {
	service, err := app.newExportService()
	if err != nil {
		return nil, err
	}
	return &recordingExporter{service: service, app: app}, nil
}

// Export реализует app.Exporter. Файл записывается в библиотеку и при ошибке выгрузки.
func (e *recordingExporter) Export(ctx context.Context, snap render.Snapshot, opts export.Options, progress export.ProgressFunc) (*export.Result, error) {
	result, err := e.service.Export(ctx, snap, opts, progress)
	if result != nil {
		e.app.record(result, snap)
	}
	return result, err
}

// record добавляет результат экспорта в библиотеку и сохраняет ее
func (app *Application) record(result *export.Result, snap render.Snapshot) {
	app.Library.Record(library.Mixdown{
		Name:      strings.TrimSuffix(filepath.Base(result.Path), filepath.Ext(result.Path)),
		Path:      result.Path,
		URL:       result.URL,
		Size:      result.Size,
		Length:    result.Duration.Seconds(),
		Tempo:     snap.Tempo,
		Tracks:    len(snap.Tracks),
		CreatedAt: time.Now(),
	})
	if err := app.SaveLibrary(); err != nil {
		app.Logger.Warn("не удалось сохранить библиотеку", "error", err)
	}
}

// removeLocal удаляет файл сведения. Отсутствующий файл не считается ошибкой.
func removeLocal(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("не удалось удалить файл: %w", err)
	}
	return nil
}
