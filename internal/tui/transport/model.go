// Package transport содержит панель транспорта для TUI: состояние, позиция,
// темп, петля, метроном и анализатор мастер-шины
package transport

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-mixdown/internal/engine"
	"github.com/hazadus/go-mixdown/internal/render"
	"github.com/hazadus/go-mixdown/internal/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0000ff"))

	statusStyle = lipgloss.NewStyle().
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	lampOnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff0000")).
			Bold(true)

	lampOffStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#444444"))

	analyserStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00aa66"))
)

// Шаги изменения параметров с клавиатуры
const (
	tempoStep  = 5
	gainStep   = 0.1
	seekStep   = 1.0
	lampFrames = 6
	bands      = 24
	fftSize    = 512
)

var levels = []rune("▁▂▃▄▅▆▇█")

// TickMsg - сигнал обновления экрана, по нему выполняется шаг транспорта
type TickMsg time.Time

// Tick возвращает команду следующего шага транспорта
func Tick() tea.Cmd {
	return tea.Tick(engine.DefaultTickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Model представляет панель транспорта
type Model struct {
	session     *engine.Session
	progressBar progress.Model
	last        engine.TickResult
	lamp        int
	message     string
	width       int
}

// NewModel создает панель транспорта для сессии
func NewModel(session *engine.Session) *Model {
	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40
	prog.ShowPercentage = false

	return &Model{
		session:     session,
		progressBar: prog,
	}
}

// Init запускает цикл шагов транспорта
func (m *Model) Init() tea.Cmd {
	return Tick()
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(10, min(60, msg.Width-10))
		return m, nil

	case TickMsg:
		m.step()
		return m, tea.Batch(m.progressBar.SetPercent(m.percent()), Tick())

	case progress.FrameMsg:
		progressModel, cmd := m.progressBar.Update(msg)
		m.progressBar = progressModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

// step выполняет шаг транспорта и обновляет лампу метронома
func (m *Model) step() {
	m.last = m.session.Tick()
	switch {
	case m.last.Clicked:
		m.lamp = lampFrames
	case m.lamp > 0:
		m.lamp--
	}
}

// percent возвращает положение курсора в петле или во всей сессии
func (m *Model) percent() float64 {
	playhead := m.session.Playhead()
	if loop := m.session.Loop(); loop.Enabled && loop.Valid() {
		return clamp01((playhead - loop.Start) / (loop.End - loop.Start))
	}
	return clamp01(playhead / m.length())
}

// length возвращает длительность сессии так же, как ее считает рендерер
func (m *Model) length() float64 {
	return render.Length(render.Snapshot{
		Tracks: m.session.Tracks().ListTracks(),
		Tempo:  m.session.Tempo(),
	})
}

// HandleKey выполняет команду транспорта. Возвращает false, если клавиша не относится к транспорту.
func (m *Model) HandleKey(msg tea.KeyMsg) bool {
	s := m.session
	m.message = ""

	switch key := msg.String(); key {
	case " ":
		s.TogglePlay()
	case "s":
		s.Stop()
	case "l":
		s.ToggleLoop()
	case "c":
		s.ToggleClick()
	case "+", "=":
		s.SetTempo(s.Tempo() + tempoStep)
	case "-", "_":
		s.SetTempo(s.Tempo() - tempoStep)
	case "]":
		s.SetMasterGain(s.MasterGain() + gainStep)
	case "[":
		s.SetMasterGain(s.MasterGain() - gainStep)
	case "left":
		s.Seek(s.Playhead() - seekStep)
	case "right":
		s.Seek(s.Playhead() + seekStep)
	case "home":
		s.Seek(0)
	case "k":
		pos := s.AddMarker()
		m.message = fmt.Sprintf("Маркер %d: %s", len(s.Markers()), utils.FormatPosition(pos))
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if err := s.JumpToMarker(int(key[0] - '1')); err != nil {
			m.message = err.Error()
		}
	default:
		return false
	}
	return true
}

// SetMessage показывает сообщение в строке состояния
func (m *Model) SetMessage(msg string) {
	m.message = msg
}

// View отображает панель транспорта
func (m *Model) View() string {
	s := m.session
	var b strings.Builder

	b.WriteString(titleStyle.Render("🎛  go-mixdown"))
	b.WriteString("\n\n")

	lamp := lampOffStyle.Render("○")
	if m.lamp > 0 {
		lamp = lampOnStyle.Render("●")
	}
	b.WriteString(statusStyle.Render(fmt.Sprintf("%s %s", stateIcon(s.State()), formatState(s.State()))))
	b.WriteString(fmt.Sprintf("   %s   %d BPM   доля %d %s\n",
		utils.FormatPosition(s.Playhead()),
		s.Tempo(),
		m.last.Beat+1,
		lamp))

	loop := s.Loop()
	b.WriteString(infoStyle.Render(fmt.Sprintf("Петля: %s %s–%s   Метроном: %s   Мастер: %s",
		onOff(loop.Enabled),
		utils.FormatPosition(loop.Start),
		utils.FormatPosition(loop.End),
		onOff(s.ClickEnabled()),
		utils.FormatGain(s.MasterGain()))))
	b.WriteString("\n\n")

	b.WriteString(m.progressBar.View())
	b.WriteString("\n")
	b.WriteString(analyserStyle.Render(m.analyser()))
	b.WriteString("\n")

	if markers := s.Markers(); len(markers) > 0 {
		parts := make([]string, len(markers))
		for i, pos := range markers {
			parts[i] = fmt.Sprintf("%d) %s", i+1, utils.FormatPosition(pos))
		}
		b.WriteString(infoStyle.Render("Маркеры: " + strings.Join(parts, "  ")))
		b.WriteString("\n")
	}
	if m.message != "" {
		b.WriteString(m.message)
		b.WriteString("\n")
	}

	return b.String()
}

// analyser сворачивает спектр мастер-шины в строку полос
func (m *Model) analyser() string {
	spectrum := m.session.Spectrum(fftSize)
	if len(spectrum) == 0 {
		return strings.Repeat(string(levels[0]), bands)
	}
	return renderBands(spectrum, bands)
}

// renderBands группирует бины спектра в n полос и переводит уровень в символы
func renderBands(spectrum []float64, n int) string {
	out := make([]rune, n)
	per := max(1, len(spectrum)/n)
	for i := range out {
		peak := 0.0
		for j := i * per; j < min(len(spectrum), (i+1)*per); j++ {
			peak = math.Max(peak, spectrum[j])
		}
		// -60..0 dB на шкалу символов
		level := 0.0
		if peak > 0 {
			level = clamp01((20*math.Log10(peak) + 60) / 60)
		}
		out[i] = levels[int(level*float64(len(levels)-1))]
	}
	return string(out)
}

func stateIcon(state engine.State) string {
	switch state {
	case engine.Playing:
		return "▶️"
	case engine.Paused:
		return "⏸️"
	}
	return "⏹️"
}

func formatState(state engine.State) string {
	switch state {
	case engine.Playing:
		return "Воспроизведение"
	case engine.Paused:
		return "Пауза"
	}
	return "Остановлено"
}

func onOff(on bool) string {
	if on {
		return "вкл"
	}
	return "выкл"
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
