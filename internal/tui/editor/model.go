// Package editor содержит модель экрана редактирования параметров дорожки для TUI
package editor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-mixdown/internal/dsp"
	"github.com/hazadus/go-mixdown/internal/track"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Margin(1, 0)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(18)
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	blurredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Margin(1, 0)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
)

// TrackSavedMsg отправляется когда параметры дорожки сохранены
type TrackSavedMsg struct {
	ID int
}

// GoBackMsg отправляется при отмене редактирования
type GoBackMsg struct{}

// setter применяет разобранное значение к дорожке
type setter func(t *track.Track)

// field - редактируемый параметр дорожки
type field struct {
	label string
	parse func(s string) (setter, error)
}

// Model представляет модель экрана редактирования дорожки
type Model struct {
	trackManager *track.Manager
	trackID      int
	title        string
	fields       []field
	inputs       []textinput.Model
	focusIndex   int
	err          string
}

// NewModel создает редактор для дорожки с указанным ID
func NewModel(trackManager *track.Manager, id int) (*Model, error) {
	t, err := trackManager.TrackByID(id)
	if err != nil {
		return nil, err
	}

	fields, values := fieldsFor(t)
	inputs := make([]textinput.Model, len(fields))
	for i := range fields {
		inputs[i] = textinput.New()
		inputs[i].SetValue(values[i])
		inputs[i].PromptStyle = blurredStyle
		inputs[i].TextStyle = blurredStyle
	}
	inputs[0].Focus()
	inputs[0].PromptStyle = focusedStyle
	inputs[0].TextStyle = focusedStyle

	return &Model{
		trackManager: trackManager,
		trackID:      id,
		title:        fmt.Sprintf("Дорожка #%d (%s)", t.ID, t.Kind()),
		fields:       fields,
		inputs:       inputs,
	}, nil
}

// fieldsFor возвращает поля дорожки и их текущие значения
func fieldsFor(t *track.Track) ([]field, []string) {
	fields := []field{
		{"Имя:", func(s string) (setter, error) {
			name := strings.TrimSpace(s)
			if name == "" {
				return nil, fmt.Errorf("имя не может быть пустым")
			}
			return func(t *track.Track) { t.Name = name }, nil
		}},
		{"Громкость:", number(0, track.MaxVolume, func(t *track.Track, v float64) { t.Volume = v })},
		{"Панорама:", number(-1, 1, func(t *track.Track, v float64) { t.Pan = v })},
		{"Эквалайзер:", toggle(func(t *track.Track, on bool) { t.EQ.Enabled = on })},
		{"  Низкие:", number(-1, 1, func(t *track.Track, v float64) { t.EQ.Low = v })},
		{"  Высокие:", number(-1, 1, func(t *track.Track, v float64) { t.EQ.High = v })},
		{"Задержка:", toggle(func(t *track.Track, on bool) { t.Delay.Enabled = on })},
		{"  Время, с:", number(track.MinDelayTime, track.MaxDelayTime, func(t *track.Track, v float64) { t.Delay.Time = v })},
		{"  Обр. связь:", number(0, track.MaxFeedback, func(t *track.Track, v float64) { t.Delay.Feedback = v })},
		{"  Посыл:", number(0, 1, func(t *track.Track, v float64) { t.Delay.Wet = v })},
		{"Реверберация:", toggle(func(t *track.Track, on bool) { t.Reverb.Enabled = on })},
		{"  Посыл:", number(0, 1, func(t *track.Track, v float64) { t.Reverb.Wet = v })},
	}
	values := []string{
		t.Name,
		formatFloat(t.Volume),
		formatFloat(t.Pan),
		formatSwitch(t.EQ.Enabled),
		formatFloat(t.EQ.Low),
		formatFloat(t.EQ.High),
		formatSwitch(t.Delay.Enabled),
		formatFloat(t.Delay.Time),
		formatFloat(t.Delay.Feedback),
		formatFloat(t.Delay.Wet),
		formatSwitch(t.Reverb.Enabled),
		formatFloat(t.Reverb.Wet),
	}

	if in := t.Instrument(); in != nil {
		fields = append(fields,
			field{"Форма волны:", func(s string) (setter, error) {
				wave, err := dsp.ParseWave(s)
				if err != nil {
					return nil, err
				}
				return func(t *track.Track) {
					if in := t.Instrument(); in != nil {
						in.Wave = wave
					}
				}, nil
			}},
			field{"Паттерн:", func(s string) (setter, error) {
				pattern, err := track.ParsePattern(s)
				if err != nil {
					return nil, err
				}
				return func(t *track.Track) {
					if in := t.Instrument(); in != nil {
						in.Pattern = pattern
					}
				}, nil
			}},
		)
		values = append(values, string(in.Wave), track.FormatPattern(in.Pattern))
	}

	return fields, values
}

// number разбирает число из диапазона [lo, hi]
func number(lo, hi float64, set func(t *track.Track, v float64)) func(string) (setter, error) {
	return func(s string) (setter, error) {
		v, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(s, ",", ".")), 64)
		if err != nil {
			return nil, fmt.Errorf("ожидалось число: %q", s)
		}
		if v < lo || v > hi {
			return nil, fmt.Errorf("значение %s вне диапазона [%s, %s]", formatFloat(v), formatFloat(lo), formatFloat(hi))
		}
		return func(t *track.Track) { set(t, v) }, nil
	}
}

// toggle разбирает переключатель: вкл/выкл, on/off, true/false, 1/0
func toggle(set func(t *track.Track, on bool)) func(string) (setter, error) {
	return func(s string) (setter, error) {
		on, err := parseSwitch(s)
		if err != nil {
			return nil, err
		}
		return func(t *track.Track) { set(t, on) }, nil
	}
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "вкл", "да", "on", "yes":
		return true, nil
	case "выкл", "нет", "off", "no":
		return false, nil
	}
	on, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("ожидалось вкл или выкл: %q", s)
	}
	return on, nil
}

func formatSwitch(on bool) string {
	if on {
		return "вкл"
	}
	return "выкл"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg {
				return GoBackMsg{}
			}

		case "ctrl+s":
			return m, m.save()

		case "tab", "shift+tab", "enter", "up", "down":
			s := msg.String()

			// Enter на кнопке сохранения
			if s == "enter" && m.focusIndex == len(m.inputs) {
				return m, m.save()
			}

			if s == "up" || s == "shift+tab" {
				m.focusIndex--
			} else {
				m.focusIndex++
			}

			if m.focusIndex > len(m.inputs) {
				m.focusIndex = 0
			} else if m.focusIndex < 0 {
				m.focusIndex = len(m.inputs)
			}

			cmds := make([]tea.Cmd, len(m.inputs))
			for i := range m.inputs {
				if i == m.focusIndex {
					cmds[i] = m.inputs[i].Focus()
					m.inputs[i].PromptStyle = focusedStyle
					m.inputs[i].TextStyle = focusedStyle
				} else {
					m.inputs[i].Blur()
					m.inputs[i].PromptStyle = blurredStyle
					m.inputs[i].TextStyle = blurredStyle
				}
			}

			return m, tea.Batch(cmds...)
		}

	case tea.WindowSizeMsg:
		for i := range m.inputs {
			m.inputs[i].Width = msg.Width - 25
		}
		return m, nil
	}

	// Обновляем активное поле ввода
	if m.focusIndex < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
		return m, cmd
	}

	return m, nil
}

// save проверяет все поля и применяет их к дорожке одним изменением.
// При ошибке дорожка не меняется, а ошибка показывается под полями.
func (m *Model) save() tea.Cmd {
	setters := make([]setter, 0, len(m.fields))
	for i, f := range m.fields {
		set, err := f.parse(m.inputs[i].Value())
		if err != nil {
			m.err = fmt.Sprintf("%s %v", strings.TrimSpace(f.label), err)
			return nil
		}
		setters = append(setters, set)
	}

	err := m.trackManager.Edit(m.trackID, func(t *track.Track) {
		for _, set := range setters {
			set(t)
		}
	})
	if err != nil {
		m.err = fmt.Sprintf("Ошибка сохранения дорожки: %v", err)
		return nil
	}

	m.err = ""
	id := m.trackID
	return func() tea.Msg {
		return TrackSavedMsg{ID: id}
	}
}

// View отображает модель
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	for i, input := range m.inputs {
		b.WriteString(labelStyle.Render(m.fields[i].label))
		b.WriteString(" ")
		b.WriteString(input.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	saveButton := "[ Сохранить ]"
	if m.focusIndex == len(m.inputs) {
		saveButton = focusedStyle.Render(saveButton)
	} else {
		saveButton = blurredStyle.Render(saveButton)
	}
	b.WriteString(saveButton)
	b.WriteString("\n\n")

	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("Tab/Enter: следующее поле • Shift+Tab: предыдущее поле"))
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("Ctrl+S: сохранить • Esc: отмена"))

	return b.String()
}
