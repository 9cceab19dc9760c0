package track

import (
	"errors"
	"testing"

	"github.com/gopxl/beep"

	"github.com/hazadus/go-mixdown/internal/dsp"
)

func testBuffer(seconds float64) *dsp.Buffer {
	format := beep.Format{SampleRate: 8000, NumChannels: 2, Precision: 2}
	return dsp.NewBuffer(format, int(seconds*8000))
}

func TestAddTrack(t *testing.T) {
	manager := NewManager()

	// Добавляем звуковую дорожку
	added := manager.AddAudioTrack("Test Title", testBuffer(2))

	// Проверяем, что дорожка была добавлена
	tracks := manager.ListTracks()
	if len(tracks) != 1 {
		t.Fatalf("Ожидалась 1 дорожка, получено %d", len(tracks))
	}

	// Проверяем значения по умолчанию
	tr := tracks[0]
	if tr != added {
		t.Error("ListTracks должен возвращать добавленную дорожку")
	}
	if tr.ID != 1 {
		t.Errorf("Ожидался ID: 1, получено: %d", tr.ID)
	}
	if tr.Name != "Test Title" {
		t.Errorf("Ожидалось имя: Test Title, получено: %s", tr.Name)
	}
	if tr.Kind() != KindAudio {
		t.Errorf("Ожидался вид audio, получено %s", tr.Kind())
	}
	if !tr.Enabled || tr.Muted || tr.Solo {
		t.Errorf("Неверные флаги новой дорожки: %+v", tr)
	}
	if tr.Volume != DefaultVolume || tr.Pan != 0 {
		t.Errorf("Неверные громкость и панорама: %f, %f", tr.Volume, tr.Pan)
	}
	if tr.Delay.Enabled || tr.Delay.Time != 0.25 || tr.Delay.Feedback != 0.25 || tr.Delay.Wet != 0.2 {
		t.Errorf("Неверные параметры задержки: %+v", tr.Delay)
	}
	if tr.Reverb.Enabled || tr.Reverb.Wet != 0.25 {
		t.Errorf("Неверные параметры реверберации: %+v", tr.Reverb)
	}
	if tr.Duration(100) != 2 {
		t.Errorf("Ожидалась длительность 2, получено %f", tr.Duration(100))
	}
}

func TestAddInstrumentTrack(t *testing.T) {
	manager := NewManager()
	manager.AddAudioTrack("Audio", testBuffer(1))
	tr := manager.AddInstrumentTrack()

	if tr.Name != "Instrument 2" {
		t.Errorf("Ожидалось имя Instrument 2, получено %s", tr.Name)
	}
	in := tr.Instrument()
	if in == nil {
		t.Fatal("Ожидалась дорожка с инструментом")
	}
	if in.Wave != dsp.Sine || in.Pattern != DefaultPattern {
		t.Errorf("Неверный инструмент по умолчанию: %+v", in)
	}
}

func TestPendingTrack(t *testing.T) {
	manager := NewManager()
	tr := manager.AddPendingTrack("loading.mp3")

	if tr.HasContent() {
		t.Error("Загружающаяся дорожка не должна иметь звука")
	}
	if tr.Buffer(100, 8000) != nil {
		t.Error("Buffer загружающейся дорожки должен быть nil")
	}
	if tr.Duration(100) != 0 {
		t.Errorf("Ожидалась нулевая длительность, получено %f", tr.Duration(100))
	}

	if err := manager.SetBuffer(tr.ID, testBuffer(3)); err != nil {
		t.Fatalf("Ошибка при установке буфера: %v", err)
	}
	if !tr.HasContent() || tr.Duration(100) != 3 {
		t.Errorf("После загрузки ожидалась длительность 3, получено %f", tr.Duration(100))
	}
}

func TestSetBufferOnlyOnce(t *testing.T) {
	manager := NewManager()
	audio := manager.AddAudioTrack("loop.wav", testBuffer(2))
	instrument := manager.AddInstrumentTrack()
	pending := manager.AddPendingTrack("loading.mp3")

	tests := []struct {
		name string
		id   int
		buf  *dsp.Buffer
		err  error
	}{
		{"audio with buffer", audio.ID, testBuffer(3), ErrNotPending},
		{"instrument", instrument.ID, testBuffer(3), ErrNotPending},
		{"nil buffer", pending.ID, nil, ErrNotPending},
		{"unknown track", 42, testBuffer(3), ErrTrackNotFound},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := manager.SetBuffer(test.id, test.buf); !errors.Is(err, test.err) {
				t.Errorf("Ожидалась ошибка %v, получено %v", test.err, err)
			}
		})
	}

	if audio.Duration(100) != 2 {
		t.Errorf("Звук дорожки не должен меняться, длительность %f", audio.Duration(100))
	}
	if instrument.Instrument() == nil {
		t.Error("Инструмент не должен превращаться в звуковую дорожку")
	}

	if err := manager.SetBuffer(pending.ID, testBuffer(1)); err != nil {
		t.Fatalf("Ошибка при установке буфера: %v", err)
	}
	if err := manager.SetBuffer(pending.ID, testBuffer(4)); !errors.Is(err, ErrNotPending) {
		t.Errorf("Повторная установка буфера должна возвращать ErrNotPending, получено %v", err)
	}
	if pending.Duration(100) != 1 {
		t.Errorf("Ожидалась длительность 1, получено %f", pending.Duration(100))
	}
}

func TestSoloRecomputesEnabled(t *testing.T) {
	manager := NewManager()
	a := manager.AddAudioTrack("A", testBuffer(1))
	b := manager.AddAudioTrack("B", testBuffer(1))
	c := manager.AddInstrumentTrack()

	if err := manager.SetSolo(b.ID, true); err != nil {
		t.Fatalf("Ошибка при включении соло: %v", err)
	}
	if a.Enabled || !b.Enabled || c.Enabled {
		t.Errorf("При соло B звучать должна только B: %v %v %v", a.Enabled, b.Enabled, c.Enabled)
	}

	// Новая дорожка при активном соло не звучит
	d := manager.AddInstrumentTrack()
	if d.Enabled {
		t.Error("Новая дорожка без соло не должна звучать при активном соло")
	}

	if err := manager.SetSolo(b.ID, false); err != nil {
		t.Fatalf("Ошибка при выключении соло: %v", err)
	}
	for _, tr := range manager.ListTracks() {
		if !tr.Enabled {
			t.Errorf("Без соло все дорожки должны звучать, %s выключена", tr.Name)
		}
	}
}

func TestToggleSolo(t *testing.T) {
	manager := NewManager()
	a := manager.AddAudioTrack("A", testBuffer(1))
	b := manager.AddAudioTrack("B", testBuffer(1))

	if err := manager.ToggleSolo(a.ID); err != nil {
		t.Fatalf("Ошибка переключения соло: %v", err)
	}
	if !a.Solo || !a.Enabled || b.Enabled {
		t.Errorf("После включения соло A звучит только A: %v %v", a.Enabled, b.Enabled)
	}

	if err := manager.ToggleSolo(a.ID); err != nil {
		t.Fatalf("Ошибка переключения соло: %v", err)
	}
	if a.Solo || !b.Enabled {
		t.Error("После выключения соло должны звучать все дорожки")
	}

	if err := manager.ToggleSolo(42); !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("Ожидалась ErrTrackNotFound, получено %v", err)
	}
}

func TestResetKeepsIDsGrowing(t *testing.T) {
	manager := NewManager()
	manager.AddAudioTrack("A", testBuffer(1))
	manager.AddInstrumentTrack()

	calls := 0
	manager.OnChange(func() { calls++ })
	manager.Reset()

	if manager.Len() != 0 {
		t.Errorf("После Reset ожидалось 0 дорожек, получено %d", manager.Len())
	}
	if calls != 1 {
		t.Errorf("Ожидался 1 вызов обработчика, получено %d", calls)
	}

	tr := manager.AddInstrumentTrack()
	if tr.ID != 3 {
		t.Errorf("Идентификаторы не должны переиспользоваться: получено %d", tr.ID)
	}

	manager.RecomputeEnabled()
	if !tr.Enabled || calls != 3 {
		t.Errorf("RecomputeEnabled: enabled=%v, вызовов %d", tr.Enabled, calls)
	}
}

func TestEditNormalizesAndNotifies(t *testing.T) {
	manager := NewManager()
	tr := manager.AddInstrumentTrack()

	calls := 0
	manager.OnChange(func() {
		calls++
		// Обработчик может читать дорожки без взаимоблокировки
		_ = manager.ListTracks()
	})

	err := manager.Edit(tr.ID, func(t *Track) {
		t.Pan = -3
		t.Volume = 10
		t.Delay.Time = 3
		t.Delay.Feedback = 2
		t.EQ.High = 5
	})
	if err != nil {
		t.Fatalf("Ошибка при изменении дорожки: %v", err)
	}

	if calls != 1 {
		t.Errorf("Ожидался 1 вызов обработчика, получено %d", calls)
	}
	if tr.Pan != -1 || tr.Volume != MaxVolume || tr.Delay.Time != MaxDelayTime ||
		tr.Delay.Feedback != MaxFeedback || tr.EQ.High != 1 {
		t.Errorf("Параметры не приведены к диапазонам: %+v", tr)
	}
}

func TestEditUnknownTrack(t *testing.T) {
	manager := NewManager()

	err := manager.Edit(42, func(*Track) {})
	if !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("Ожидалась ErrTrackNotFound, получено %v", err)
	}
	if _, err := manager.TrackByID(42); !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("Ожидалась ErrTrackNotFound, получено %v", err)
	}
}

func TestDeleteTrack(t *testing.T) {
	manager := NewManager()
	first := manager.AddAudioTrack("Title 1", testBuffer(1))
	manager.AddAudioTrack("Title 2", testBuffer(1))

	if err := manager.SetSolo(first.ID, true); err != nil {
		t.Fatalf("Ошибка при включении соло: %v", err)
	}

	// Удаляем первую дорожку (ID = 1)
	if err := manager.Delete(first.ID); err != nil {
		t.Errorf("Ошибка при удалении дорожки: %v", err)
	}

	tracks := manager.ListTracks()
	if len(tracks) != 1 {
		t.Fatalf("Ожидалась 1 дорожка после удаления, получено %d", len(tracks))
	}
	if tracks[0].Name != "Title 2" {
		t.Errorf("Осталась неверная дорожка: %s", tracks[0].Name)
	}
	if !tracks[0].Enabled {
		t.Error("После удаления единственной соло-дорожки остальные должны звучать")
	}

	if err := manager.Delete(first.ID); !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("Ожидалась ErrTrackNotFound при повторном удалении, получено %v", err)
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	manager := NewManager()
	tr := manager.AddInstrumentTrack()

	snap := manager.Snapshot()
	_ = manager.Edit(tr.ID, func(t *Track) {
		t.Volume = 0.1
		t.Instrument().Pattern[0] = 5
	})

	if snap[0].Volume != DefaultVolume {
		t.Errorf("Снимок не должен меняться вместе с дорожкой, громкость %f", snap[0].Volume)
	}
	if snap[0].Instrument().Pattern[0] != 0 {
		t.Error("Паттерн снимка не должен меняться вместе с дорожкой")
	}
}
