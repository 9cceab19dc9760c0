package tracklist

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gopxl/beep"

	"github.com/hazadus/go-mixdown/internal/dsp"
	"github.com/hazadus/go-mixdown/internal/track"
)

func newTestManager() *track.Manager {
	manager := track.NewManager()
	format := beep.Format{SampleRate: 8000, NumChannels: 2, Precision: 2}
	manager.AddAudioTrack("Test Track 1", dsp.NewBuffer(format, 16000))
	manager.AddInstrumentTrack()
	return manager
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModel(t *testing.T) {
	model := NewModel(newTestManager(), 120)

	if model.trackManager == nil {
		t.Fatal("trackManager is nil")
	}
	if len(model.list.Items()) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(model.list.Items()))
	}
	if selected := model.Selected(); selected == nil || selected.ID != 1 {
		t.Errorf("Expected first track to be selected, got %+v", selected)
	}
}

func TestFormatRow(t *testing.T) {
	manager := newTestManager()
	tracks := manager.ListTracks()

	audio := formatRow(tracks[0], 120)
	if !strings.Contains(audio, "Test Track 1") || !strings.Contains(audio, "00:02.0") {
		t.Errorf("Неверная строка звуковой дорожки: %q", audio)
	}

	instrument := formatRow(tracks[1], 120)
	if !strings.Contains(instrument, "instrument") || !strings.Contains(instrument, "00:04.0") {
		t.Errorf("Неверная строка инструмента: %q", instrument)
	}

	pending := formatRow(manager.AddPendingTrack("Loading"), 120)
	if !strings.Contains(pending, "загрузка") {
		t.Errorf("Загружающаяся дорожка должна быть помечена: %q", pending)
	}
}

func TestMuteAndSoloKeys(t *testing.T) {
	manager := newTestManager()
	model := NewModel(manager, 120)

	model, _ = model.Update(key("m"))
	first, _ := manager.TrackByID(1)
	if !first.Muted {
		t.Error("Клавиша m должна заглушать выбранную дорожку")
	}

	model, _ = model.Update(key("o"))
	second, _ := manager.TrackByID(2)
	if !first.Solo || second.Enabled {
		t.Error("Клавиша o должна включать соло выбранной дорожки")
	}
	if !strings.Contains(formatRow(first, 120), "MS") {
		t.Errorf("Строка должна показывать M и S: %q", formatRow(first, 120))
	}
}

func TestAddInstrumentKey(t *testing.T) {
	manager := newTestManager()
	model := NewModel(manager, 120)

	model, _ = model.Update(key("i"))
	if manager.Len() != 3 || len(model.list.Items()) != 3 {
		t.Fatalf("Ожидалось 3 дорожки, получено %d", manager.Len())
	}
	if selected := model.Selected(); selected == nil || selected.ID != 3 {
		t.Errorf("Новая дорожка должна быть выбрана, получено %+v", selected)
	}
}

func TestEditAndAuditionMessages(t *testing.T) {
	model := NewModel(newTestManager(), 120)

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Expected command for enter key")
	}
	if msg, ok := cmd().(TrackEditMsg); !ok || msg.ID != 1 {
		t.Errorf("Ожидалось TrackEditMsg{ID: 1}, получено %#v", msg)
	}

	_, cmd = model.Update(key("a"))
	if cmd == nil {
		t.Fatal("Expected command for a key")
	}
	if msg, ok := cmd().(AuditionMsg); !ok || msg.ID != 1 {
		t.Errorf("Ожидалось AuditionMsg{ID: 1}, получено %#v", msg)
	}
}
