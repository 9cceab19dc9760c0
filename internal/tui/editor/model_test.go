package editor

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-mixdown/internal/dsp"
	"github.com/hazadus/go-mixdown/internal/track"
)

// fieldIndex возвращает номер поля по подписи
func fieldIndex(t *testing.T, m *Model, label string) int {
	t.Helper()
	for i, f := range m.fields {
		if f.label == label {
			return i
		}
	}
	t.Fatalf("Поле %q не найдено", label)
	return -1
}

func TestNewModel(t *testing.T) {
	manager := track.NewManager()
	manager.AddPendingTrack("Audio")
	manager.AddInstrumentTrack()

	audio, err := NewModel(manager, 1)
	if err != nil {
		t.Fatalf("Ошибка создания редактора: %v", err)
	}
	if len(audio.inputs) != 12 {
		t.Errorf("У звуковой дорожки ожидалось 12 полей, получено %d", len(audio.inputs))
	}
	if audio.inputs[0].Value() != "Audio" {
		t.Errorf("Поле имени должно содержать имя дорожки, получено %q", audio.inputs[0].Value())
	}

	instrument, err := NewModel(manager, 2)
	if err != nil {
		t.Fatalf("Ошибка создания редактора: %v", err)
	}
	if len(instrument.inputs) != 14 {
		t.Errorf("У инструмента ожидалось 14 полей, получено %d", len(instrument.inputs))
	}
	if v := instrument.inputs[fieldIndex(t, instrument, "Паттерн:")].Value(); v != "0,7,0,7,0,10,0,12" {
		t.Errorf("Неверный паттерн: %q", v)
	}

	if _, err := NewModel(manager, 42); !errors.Is(err, track.ErrTrackNotFound) {
		t.Errorf("Ожидалась ErrTrackNotFound, получено %v", err)
	}
}

func TestSave(t *testing.T) {
	manager := track.NewManager()
	manager.AddInstrumentTrack()

	model, err := NewModel(manager, 1)
	if err != nil {
		t.Fatalf("Ошибка создания редактора: %v", err)
	}

	model.inputs[fieldIndex(t, model, "Имя:")].SetValue("Bass")
	model.inputs[fieldIndex(t, model, "Громкость:")].SetValue("0,5")
	model.inputs[fieldIndex(t, model, "Задержка:")].SetValue("вкл")
	model.inputs[fieldIndex(t, model, "  Время, с:")].SetValue("0.5")
	model.inputs[fieldIndex(t, model, "Форма волны:")].SetValue("square")
	model.inputs[fieldIndex(t, model, "Паттерн:")].SetValue("1,2,3")

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatalf("Ожидалась команда после сохранения, ошибка: %s", model.err)
	}
	if msg, ok := cmd().(TrackSavedMsg); !ok || msg.ID != 1 {
		t.Errorf("Ожидалось TrackSavedMsg{ID: 1}, получено %#v", msg)
	}

	saved, _ := manager.TrackByID(1)
	if saved.Name != "Bass" || saved.Volume != 0.5 {
		t.Errorf("Неверные параметры: %s, %f", saved.Name, saved.Volume)
	}
	if !saved.Delay.Enabled || saved.Delay.Time != 0.5 {
		t.Errorf("Неверная задержка: %+v", saved.Delay)
	}
	in := saved.Instrument()
	if in.Wave != dsp.Square {
		t.Errorf("Ожидалась форма square, получено %s", in.Wave)
	}
	if in.Pattern != [track.Steps]int{1, 2, 3, 0, 0, 0, 0, 0} {
		t.Errorf("Неверный паттерн: %v", in.Pattern)
	}
}

func TestSaveValidation(t *testing.T) {
	tests := []struct {
		label string
		value string
		want  string
	}{
		{"Имя:", "  ", "Имя:"},
		{"Громкость:", "громко", "ожидалось число"},
		{"Панорама:", "2", "вне диапазона"},
		{"  Время, с:", "1.5", "вне диапазона"},
		{"Эквалайзер:", "может быть", "ожидалось вкл или выкл"},
		{"Паттерн:", "1,2,3,4,5,6,7,8,9", "паттерн"},
		{"Форма волны:", "noise", "Форма волны:"},
	}

	for _, test := range tests {
		t.Run(test.label, func(t *testing.T) {
			manager := track.NewManager()
			manager.AddInstrumentTrack()
			model, _ := NewModel(manager, 1)

			model.inputs[fieldIndex(t, model, test.label)].SetValue(test.value)
			_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
			if cmd != nil {
				t.Fatal("При ошибке проверки команда не ожидается")
			}
			if !strings.Contains(model.err, test.want) {
				t.Errorf("Ошибка %q должна содержать %q", model.err, test.want)
			}

			saved, _ := manager.TrackByID(1)
			if saved.Volume != track.DefaultVolume || saved.Name != "Instrument 1" {
				t.Errorf("Дорожка не должна меняться при ошибке: %+v", saved)
			}
		})
	}
}

func TestFocusNavigation(t *testing.T) {
	manager := track.NewManager()
	manager.AddPendingTrack("Audio")
	model, _ := NewModel(manager, 1)

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyTab})
	if model.focusIndex != 1 || !model.inputs[1].Focused() || model.inputs[0].Focused() {
		t.Errorf("Tab должен переводить фокус на следующее поле, фокус %d", model.focusIndex)
	}

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if model.focusIndex != len(model.inputs) {
		t.Errorf("Фокус должен перейти на кнопку сохранения, фокус %d", model.focusIndex)
	}

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Enter на кнопке должен сохранять дорожку")
	}
	if _, ok := cmd().(TrackSavedMsg); !ok {
		t.Error("Ожидалось TrackSavedMsg")
	}
}

func TestGoBack(t *testing.T) {
	manager := track.NewManager()
	manager.AddInstrumentTrack()
	model, _ := NewModel(manager, 1)

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("Expected command for esc key")
	}
	if _, ok := cmd().(GoBackMsg); !ok {
		t.Error("Ожидалось GoBackMsg")
	}
}

func TestParseSwitch(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
		ok       bool
	}{
		{"вкл", true, true},
		{"ВЫКЛ", false, true},
		{"on", true, true},
		{"true", true, true},
		{"0", false, true},
		{"?", false, false},
	}

	for _, test := range tests {
		result, err := parseSwitch(test.input)
		if (err == nil) != test.ok || result != test.expected {
			t.Errorf("parseSwitch(%q) = %v, %v", test.input, result, err)
		}
	}
}
