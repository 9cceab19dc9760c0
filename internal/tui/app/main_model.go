// Package app содержит основную логику TUI приложения
package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-mixdown/internal/engine"
	"github.com/hazadus/go-mixdown/internal/export"
	"github.com/hazadus/go-mixdown/internal/render"
	"github.com/hazadus/go-mixdown/internal/tui/editor"
	"github.com/hazadus/go-mixdown/internal/tui/tracklist"
	"github.com/hazadus/go-mixdown/internal/tui/transport"
	"github.com/hazadus/go-mixdown/internal/utils"
)

// ScreenType определяет тип текущего экрана
type ScreenType int

// Константы для типов экранов
const (
	// MixerScreen - экран микшера с панелью транспорта
	MixerScreen ScreenType = iota
	// EditorScreen - экран редактирования дорожки
	EditorScreen
)

// headerHeight - высота панели транспорта над списком дорожек
const headerHeight = 12

// Exporter сводит сессию в файл
type Exporter interface {
	Export(ctx context.Context, snap render.Snapshot, opts export.Options, progress export.ProgressFunc) (*export.Result, error)
}

// ExportDoneMsg отправляется по завершении экспорта
type ExportDoneMsg struct {
	Result *export.Result
	Err    error
}

// MainModel представляет главную модель TUI
type MainModel struct {
	session        *engine.Session
	exporter       Exporter
	exportOpts     export.Options
	currentScreen  ScreenType
	transportModel *transport.Model
	tracklistModel *tracklist.Model
	editorModel    *editor.Model
	exporting      bool
}

// NewMainModel создает новую главную модель. exporter может быть nil.
func NewMainModel(session *engine.Session, exporter Exporter, exportOpts export.Options) *MainModel {
	return &MainModel{
		session:        session,
		exporter:       exporter,
		exportOpts:     exportOpts,
		currentScreen:  MixerScreen,
		transportModel: transport.NewModel(session),
		tracklistModel: tracklist.NewModel(session.Tracks(), session.Tempo()),
	}
}

// Init инициализирует модель
func (m *MainModel) Init() tea.Cmd {
	return tea.Batch(m.transportModel.Init(), m.tracklistModel.Init())
}

// Update обрабатывает сообщения
func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.session.Stop()
			return m, tea.Quit
		}
		if m.currentScreen == MixerScreen {
			return m.handleMixerKey(msg)
		}

	case transport.TickMsg, progress.FrameMsg:
		var cmd tea.Cmd
		m.transportModel, cmd = m.transportModel.Update(msg)
		if m.currentScreen == MixerScreen {
			m.tracklistModel.RefreshData(m.session.Tempo())
		}
		return m, cmd

	case tracklist.TrackEditMsg:
		editorModel, err := editor.NewModel(m.session.Tracks(), msg.ID)
		if err != nil {
			m.transportModel.SetMessage(err.Error())
			return m, nil
		}
		m.currentScreen = EditorScreen
		m.editorModel = editorModel
		return m, m.editorModel.Init()

	case tracklist.AuditionMsg:
		m.audition(msg.ID)
		return m, nil

	case editor.GoBackMsg:
		m.currentScreen = MixerScreen
		m.editorModel = nil
		m.tracklistModel.RefreshData(m.session.Tempo())
		return m, nil

	case editor.TrackSavedMsg:
		m.currentScreen = MixerScreen
		m.editorModel = nil
		m.tracklistModel.RefreshData(m.session.Tempo())
		m.transportModel.SetMessage(fmt.Sprintf("Дорожка #%d сохранена", msg.ID))
		return m, nil

	case ExportDoneMsg:
		m.exporting = false
		if msg.Err != nil {
			m.transportModel.SetMessage(fmt.Sprintf("Ошибка экспорта: %v", msg.Err))
			return m, nil
		}
		text := fmt.Sprintf("Сведение сохранено: %s (%s)", msg.Result.Path, utils.FormatFileSize(msg.Result.Size))
		if msg.Result.URL != "" {
			text += "\nURL: " + msg.Result.URL
		}
		m.transportModel.SetMessage(text)
		return m, nil

	case tea.WindowSizeMsg:
		var transportCmd, tracklistCmd, editorCmd tea.Cmd
		m.transportModel, transportCmd = m.transportModel.Update(msg)
		m.tracklistModel, tracklistCmd = m.tracklistModel.Update(tea.WindowSizeMsg{
			Width:  msg.Width,
			Height: max(5, msg.Height-headerHeight),
		})
		if m.editorModel != nil {
			m.editorModel, editorCmd = m.editorModel.Update(msg)
		}
		return m, tea.Batch(transportCmd, tracklistCmd, editorCmd)
	}

	// Передаем сообщение активной модели
	var cmd tea.Cmd
	switch m.currentScreen {
	case MixerScreen:
		m.tracklistModel, cmd = m.tracklistModel.Update(msg)
	case EditorScreen:
		if m.editorModel != nil {
			m.editorModel, cmd = m.editorModel.Update(msg)
		}
	}
	return m, cmd
}

// handleMixerKey обрабатывает клавиши экрана микшера: сначала глобальные,
// затем транспорт, остальное получает список дорожек
func (m *MainModel) handleMixerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.session.Stop()
		return m, tea.Quit
	case "x":
		return m, m.export()
	case "esc":
		m.session.StopAudition()
		return m, nil
	}

	if m.transportModel.HandleKey(msg) {
		return m, nil
	}

	var cmd tea.Cmd
	m.tracklistModel, cmd = m.tracklistModel.Update(msg)
	return m, cmd
}

// audition прослушивает дорожку отдельно от микса
func (m *MainModel) audition(id int) {
	t, err := m.session.Tracks().TrackByID(id)
	if err != nil {
		m.transportModel.SetMessage(err.Error())
		return
	}
	buf := t.Buffer(m.session.Tempo(), m.session.SampleRate())
	if buf == nil {
		m.transportModel.SetMessage(fmt.Sprintf("Дорожка %q еще загружается", t.Name))
		return
	}
	m.session.Audition(buf)
	m.transportModel.SetMessage(fmt.Sprintf("Прослушивание: %s (Esc: остановить)", t.Name))
}

// export запускает сведение в фоне. Снимок сессии берется сразу.
func (m *MainModel) export() tea.Cmd {
	if m.exporter == nil {
		m.transportModel.SetMessage("Экспорт недоступен")
		return nil
	}
	if m.exporting {
		return nil
	}

	m.exporting = true
	m.transportModel.SetMessage("Экспорт...")
	snap := m.session.Snapshot()
	exporter := m.exporter
	opts := m.exportOpts
	return func() tea.Msg {
		result, err := exporter.Export(context.Background(), snap, opts, nil)
		return ExportDoneMsg{Result: result, Err: err}
	}
}

// View отображает интерфейс
func (m *MainModel) View() string {
	switch m.currentScreen {
	case MixerScreen:
		return m.transportModel.View() + "\n" + m.tracklistModel.View()

	case EditorScreen:
		if m.editorModel != nil {
			return m.editorModel.View()
		}
		return "Ошибка: модель редактора не инициализирована"

	default:
		return "Неизвестный экран"
	}
}

// Close останавливает транспорт и освобождает вывод звука
func (m *MainModel) Close() error {
	m.session.Stop()
	return m.session.Close()
}
