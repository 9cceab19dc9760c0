package render

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/gopxl/beep"

	"github.com/hazadus/go-mixdown/internal/dsp"
	"github.com/hazadus/go-mixdown/internal/track"
	"github.com/hazadus/go-mixdown/internal/wavenc"
)

const testRate = beep.SampleRate(1000)

func newTestRenderer() *Renderer {
	return NewRenderer(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func constBuffer(rate beep.SampleRate, seconds, value float64) *dsp.Buffer {
	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	buf := dsp.NewBuffer(format, int(seconds*float64(rate)))
	for i := range buf.Samples {
		buf.Samples[i] = [2]float64{value, value}
	}
	return buf
}

// instrumentSnapshot возвращает снимок с одной дорожкой инструмента при темпе 120
func instrumentSnapshot() (Snapshot, *track.Manager) {
	manager := track.NewManager()
	manager.AddInstrumentTrack()
	return Snapshot{
		Tracks:     manager.Snapshot(),
		Tempo:      120,
		MasterGain: 0.8,
		SampleRate: testRate,
	}, manager
}

func TestLength(t *testing.T) {
	manager := track.NewManager()
	snap := Snapshot{Tempo: 120, SampleRate: testRate}

	if Length(snap) != MinSeconds {
		t.Errorf("Пустой снимок: ожидалось %f с, получено %f", MinSeconds, Length(snap))
	}

	long := manager.AddAudioTrack("Long", constBuffer(testRate, 10, 0.1))
	manager.AddInstrumentTrack()
	if err := manager.SetSolo(long.ID+1, true); err != nil {
		t.Fatalf("Ошибка включения соло: %v", err)
	}

	// Выключенная соло-режимом дорожка все равно учитывается в длительности
	snap.Tracks = manager.Snapshot()
	if Length(snap) != 11 {
		t.Errorf("Ожидалось 11 с, получено %f", Length(snap))
	}
	if Frames(snap) != 11000 {
		t.Errorf("Ожидалось 11000 кадров, получено %d", Frames(snap))
	}
}

func TestRenderEmpty(t *testing.T) {
	out, err := newTestRenderer().Render(context.Background(), Snapshot{Tempo: 100, MasterGain: 1, SampleRate: testRate}, nil)
	if err != nil {
		t.Fatalf("Ошибка рендеринга: %v", err)
	}
	if out.Len() != 8000 {
		t.Errorf("Ожидалось 8000 кадров, получено %d", out.Len())
	}
	if out.Peak() != 0 {
		t.Errorf("Пустой рендер должен быть тишиной, пик %f", out.Peak())
	}
}

func TestRenderInstrument(t *testing.T) {
	snap, _ := instrumentSnapshot()

	out, err := newTestRenderer().Render(context.Background(), snap, nil)
	if err != nil {
		t.Fatalf("Ошибка рендеринга: %v", err)
	}
	if out.Len() != 8000 {
		t.Fatalf("Ожидалось 8000 кадров, получено %d", out.Len())
	}

	// Первый шаг паттерна - пауза
	for i := 0; i < 500; i++ {
		if out.Samples[i] != [2]float64{} {
			t.Fatalf("Кадр %d должен быть тихим: %v", i, out.Samples[i])
		}
	}

	// Кадр 600: второй шаг (нота 7), 0.1 с от начала ноты
	tt := 0.1
	env := math.Min(1, 10*tt) * math.Exp(-3*tt)
	expected := math.Sin(2*math.Pi*track.Frequency(7)*0.6) * env * track.NoteLevel * track.DefaultVolume * 0.8
	got := out.Samples[600]
	if math.Abs(got[0]-expected) > 1e-9 || math.Abs(got[1]-expected) > 1e-9 {
		t.Errorf("Кадр 600: ожидалось %f, получено %v", expected, got)
	}

	// После конца паттерна остается тишина
	for i := 4000; i < out.Len(); i++ {
		if out.Samples[i] != [2]float64{} {
			t.Fatalf("Кадр %d после паттерна должен быть тихим: %v", i, out.Samples[i])
		}
	}
}

func TestRenderSkipsDisabledTracks(t *testing.T) {
	manager := track.NewManager()
	loud := manager.AddAudioTrack("Loud", constBuffer(testRate, 1, 0.5))
	solo := manager.AddPendingTrack("Pending")
	if err := manager.SetSolo(solo.ID, true); err != nil {
		t.Fatalf("Ошибка включения соло: %v", err)
	}
	if loud.Enabled {
		t.Fatal("Дорожка без соло должна быть выключена")
	}

	snap := Snapshot{Tracks: manager.Snapshot(), Tempo: 100, MasterGain: 1, SampleRate: testRate}
	out, err := newTestRenderer().Render(context.Background(), snap, nil)
	if err != nil {
		t.Fatalf("Ошибка рендеринга: %v", err)
	}
	if out.Peak() != 0 {
		t.Errorf("Выключенная дорожка не должна звучать, пик %f", out.Peak())
	}
}

func TestRenderMutedTrackWithoutSends(t *testing.T) {
	manager := track.NewManager()
	tr := manager.AddAudioTrack("Muted", constBuffer(testRate, 1, 0.5))
	if err := manager.SetMuted(tr.ID, true); err != nil {
		t.Fatalf("Ошибка заглушения: %v", err)
	}

	snap := Snapshot{Tracks: manager.Snapshot(), Tempo: 100, MasterGain: 1, SampleRate: testRate}
	out, err := newTestRenderer().Render(context.Background(), snap, nil)
	if err != nil {
		t.Fatalf("Ошибка рендеринга: %v", err)
	}
	if out.Peak() != 0 {
		t.Errorf("Заглушенная дорожка без посылов должна молчать, пик %f", out.Peak())
	}
}

func TestRenderResamplesAudio(t *testing.T) {
	manager := track.NewManager()
	manager.AddAudioTrack("Hi-Res", constBuffer(2*testRate, 1, 0.5))

	snap := Snapshot{Tracks: manager.Snapshot(), Tempo: 100, MasterGain: 1, SampleRate: testRate}
	out, err := newTestRenderer().Render(context.Background(), snap, nil)
	if err != nil {
		t.Fatalf("Ошибка рендеринга: %v", err)
	}
	if out.Peak() == 0 {
		t.Error("Дорожка с другой частотой должна звучать")
	}
	if out.Samples[2000] != [2]float64{} {
		t.Errorf("После конца дорожки ожидалась тишина: %v", out.Samples[2000])
	}
}

func TestRenderDeterministic(t *testing.T) {
	snap, manager := instrumentSnapshot()
	if err := manager.Edit(1, func(tr *track.Track) {
		tr.Delay.Enabled = true
		tr.Reverb.Enabled = true
	}); err != nil {
		t.Fatalf("Ошибка редактирования: %v", err)
	}
	snap.Tracks = manager.Snapshot()
	snap.Impulse = dsp.Impulse(testRate, 0.5, 7)

	renderer := newTestRenderer()
	first, err := renderer.Render(context.Background(), snap, nil)
	if err != nil {
		t.Fatalf("Ошибка рендеринга: %v", err)
	}
	second, err := renderer.Render(context.Background(), snap, nil)
	if err != nil {
		t.Fatalf("Ошибка рендеринга: %v", err)
	}

	for i := range first.Samples {
		if first.Samples[i] != second.Samples[i] {
			t.Fatalf("Рендеры различаются в кадре %d: %v и %v", i, first.Samples[i], second.Samples[i])
		}
	}

	firstWAV, err := wavenc.Encode(first)
	if err != nil {
		t.Fatalf("Ошибка кодирования: %v", err)
	}
	secondWAV, err := wavenc.Encode(second)
	if err != nil {
		t.Fatalf("Ошибка кодирования: %v", err)
	}
	if !bytes.Equal(firstWAV, secondWAV) {
		t.Error("WAV-файлы двух рендеров различаются")
	}
}

func TestRenderProgress(t *testing.T) {
	snap, _ := instrumentSnapshot()

	calls := 0
	lastDone, lastTotal := 0, 0
	_, err := newTestRenderer().Render(context.Background(), snap, func(done, total int) {
		if done < lastDone {
			t.Errorf("Прогресс не должен убывать: %d после %d", done, lastDone)
		}
		calls++
		lastDone, lastTotal = done, total
	})
	if err != nil {
		t.Fatalf("Ошибка рендеринга: %v", err)
	}
	if calls != 2 {
		t.Errorf("Ожидалось 2 блока по %d кадров, получено %d", blockSize, calls)
	}
	if lastDone != 8000 || lastTotal != 8000 {
		t.Errorf("Прогресс должен дойти до конца: %d/%d", lastDone, lastTotal)
	}
}

func TestRenderCancelled(t *testing.T) {
	snap, _ := instrumentSnapshot()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := newTestRenderer().Render(ctx, snap, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Ожидалась context.Canceled, получено %v", err)
	}
	if out != nil {
		t.Error("Прерванный рендер не должен возвращать буфер")
	}
}

func TestRenderInvalidSampleRate(t *testing.T) {
	if _, err := newTestRenderer().Render(context.Background(), Snapshot{}, nil); !errors.Is(err, ErrInvalidSampleRate) {
		t.Errorf("Ожидалась ErrInvalidSampleRate, получено %v", err)
	}
}
