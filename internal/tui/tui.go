// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-mixdown/internal/engine"
	"github.com/hazadus/go-mixdown/internal/export"
	"github.com/hazadus/go-mixdown/internal/tui/app"
)

// App представляет основное TUI приложение
type App struct {
	session    *engine.Session
	exporter   app.Exporter
	exportOpts export.Options
}

// NewApp создает новый экземпляр TUI приложения. exporter может быть nil.
func NewApp(session *engine.Session, exporter app.Exporter, exportOpts export.Options) *App {
	return &App{
		session:    session,
		exporter:   exporter,
		exportOpts: exportOpts,
	}
}

// Model возвращает главную модель для Bubble Tea
func (tuiApp *App) Model() *app.MainModel {
	return app.NewMainModel(tuiApp.session, tuiApp.exporter, tuiApp.exportOpts)
}

// Run запускает TUI приложение
func (tuiApp *App) Run() error {
	model := tuiApp.Model()

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()

	// Останавливаем звук после завершения программы
	if closeErr := model.Close(); err == nil {
		err = closeErr
	}

	return err
}
