package engine

import (
	"sync/atomic"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/hazadus/go-mixdown/internal/dsp"
)

// Bus - мастер-шина: микшер, общее усиление и анализатор.
// Число выданных кадров служит часами движка.
type Bus struct {
	sr     beep.SampleRate
	mixer  beep.Mixer
	gain   *effects.Gain
	tap    *dsp.Tap
	frames atomic.Int64
}

func newBus(sr beep.SampleRate, gain float64) *Bus {
	b := &Bus{sr: sr}
	b.gain = &effects.Gain{Streamer: &b.mixer, Gain: gain - 1}
	b.tap = dsp.NewTap(b.gain, dsp.DefaultTapSize)
	return b
}

// Stream выдает сумму всех голосов. Шина никогда не заканчивается.
func (b *Bus) Stream(samples [][2]float64) (int, bool) {
	n, _ := b.tap.Stream(samples)
	clear(samples[n:])
	b.frames.Add(int64(len(samples)))
	return len(samples), true
}

// Err всегда возвращает nil
func (b *Bus) Err() error { return nil }

// Now возвращает время вывода в секундах
func (b *Bus) Now() float64 {
	return float64(b.frames.Load()) / float64(b.sr)
}

// Voices возвращает число стримеров в микшере. Вызывать под блокировкой вывода.
func (b *Bus) Voices() int {
	return b.mixer.Len()
}

func (b *Bus) add(s ...beep.Streamer) {
	b.mixer.Add(s...)
}

func (b *Bus) setGain(g float64) {
	b.gain.Gain = g - 1
}
