// Package tracklist содержит модель экрана микшера для TUI
package tracklist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-mixdown/internal/track"
	"github.com/hazadus/go-mixdown/internal/utils"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	disabledItemStyle = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("240"))
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
)

// TrackEditMsg отправляется при выборе дорожки для редактирования
type TrackEditMsg struct {
	ID int
}

// AuditionMsg отправляется для прослушивания дорожки отдельно от микса
type AuditionMsg struct {
	ID int
}

// trackItem реализует интерфейс list.Item для дорожки
type trackItem struct {
	track *track.Track
	tempo int
}

func (i trackItem) FilterValue() string {
	return i.track.Name
}

// trackItemDelegate реализует отображение элементов списка
type trackItemDelegate struct{}

func (d trackItemDelegate) Height() int                             { return 1 }
func (d trackItemDelegate) Spacing() int                            { return 0 }
func (d trackItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d trackItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(trackItem)
	if !ok {
		return
	}

	fmt.Fprint(w, renderRow(i, index == m.Index()))
}

func renderRow(i trackItem, selected bool) string {
	str := formatRow(i.track, i.tempo)
	switch {
	case selected:
		return selectedItemStyle.Render("> " + str)
	case !i.track.Enabled || i.track.Muted:
		return disabledItemStyle.Render(str)
	}
	return itemStyle.Render(str)
}

// formatRow форматирует строку микшера:
// ID | Вид | Имя | Громкость | Панорама | M S | Эффекты | Длительность
func formatRow(t *track.Track, tempo int) string {
	duration := "загрузка"
	if t.HasContent() {
		duration = utils.FormatPosition(t.Duration(tempo))
	}
	return fmt.Sprintf("%-3d %-10s %-24s %3.0f%% %+5.2f %s%s %-5s %s",
		t.ID,
		t.Kind(),
		utils.TruncateString(t.Name, 24),
		t.Volume*100,
		t.Pan,
		flag(t.Muted, "M"),
		flag(t.Solo, "S"),
		effects(t),
		duration)
}

func flag(on bool, s string) string {
	if on {
		return s
	}
	return "·"
}

// effects возвращает короткую метку включенных эффектов: E(Q) D(elay) R(everb)
func effects(t *track.Track) string {
	var b strings.Builder
	b.WriteString(flag(t.EQ.Enabled, "E"))
	b.WriteString(flag(t.Delay.Enabled, "D"))
	b.WriteString(flag(t.Reverb.Enabled, "R"))
	return b.String()
}

// Model представляет модель экрана микшера
type Model struct {
	list         list.Model
	trackManager *track.Manager
	tempo        int
}

// NewModel создает новую модель микшера
func NewModel(trackManager *track.Manager, tempo int) *Model {
	l := list.New(nil, trackItemDelegate{}, 0, 0)
	l.Title = "Дорожки"
	l.SetShowStatusBar(false)
	l.SetShowTitle(true)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	m := &Model{
		list:         l,
		trackManager: trackManager,
		tempo:        tempo,
	}
	m.RefreshData(tempo)
	return m
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// RefreshData обновляет данные модели без пересоздания
func (m *Model) RefreshData(tempo int) {
	m.tempo = tempo
	tracks := m.trackManager.ListTracks()

	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t, tempo: tempo}
	}

	m.list.SetItems(items)
}

// Selected возвращает выбранную дорожку или nil
func (m *Model) Selected() *track.Track {
	if item, ok := m.list.SelectedItem().(trackItem); ok {
		return item.track
	}
	return nil
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height)
		return m, nil

	case tea.KeyMsg:
		selected := m.Selected()
		switch msg.String() {
		case "enter", "e":
			if selected != nil {
				id := selected.ID
				return m, func() tea.Msg {
					return TrackEditMsg{ID: id}
				}
			}
			return m, nil

		case "a":
			if selected != nil {
				id := selected.ID
				return m, func() tea.Msg {
					return AuditionMsg{ID: id}
				}
			}
			return m, nil

		case "m":
			if selected != nil {
				_ = m.trackManager.SetMuted(selected.ID, !selected.Muted)
				m.RefreshData(m.tempo)
			}
			return m, nil

		case "o":
			if selected != nil {
				_ = m.trackManager.ToggleSolo(selected.ID)
				m.RefreshData(m.tempo)
			}
			return m, nil

		case "i":
			m.trackManager.AddInstrumentTrack()
			m.RefreshData(m.tempo)
			m.list.Select(len(m.list.Items()) - 1)
			return m, nil

		case "delete", "backspace":
			if selected != nil {
				_ = m.trackManager.Delete(selected.ID)
				m.RefreshData(m.tempo)
			}
			return m, nil
		}
	}

	// Обновляем список
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View отображает модель
func (m *Model) View() string {
	view := m.list.View()
	extraHelp := helpStyle.Render("Enter: параметры • a: прослушать • m: заглушить • o: соло • i: инструмент • Del: удалить")
	return view + "\n" + extraHelp
}
