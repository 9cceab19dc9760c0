package track

import (
	"github.com/gopxl/beep"

	"github.com/hazadus/go-mixdown/internal/dsp"
	"github.com/hazadus/go-mixdown/internal/fx"
)

// EQ - двухполосный полочный эквалайзер. Low и High в диапазоне [-1, 1].
type EQ struct {
	Enabled bool
	Low     float64
	High    float64
}

// Delay - посыл на задержку
type Delay struct {
	Enabled  bool
	Time     float64 // секунды
	Feedback float64
	Wet      float64
}

// Reverb - посыл на реверберацию
type Reverb struct {
	Enabled bool
	Wet     float64
}

// Диапазоны параметров дорожки
const (
	MinDelayTime    = 0.0
	MaxDelayTime    = 0.9
	MaxFeedback     = 0.95
	MaxVolume       = 1.0
	DefaultVolume   = 0.9
	DefaultDelay    = 0.25
	DefaultFeedback = 0.25
	DefaultWet      = 0.2
	DefaultReverb   = 0.25
)

// Track - дорожка сессии
type Track struct {
	ID      int
	Name    string
	Content Content

	Enabled bool // вычисляется менеджером по флагам Solo
	Muted   bool
	Solo    bool
	Volume  float64
	Pan     float64
	EQ      EQ
	Delay   Delay
	Reverb  Reverb
}

func newTrack(id int, name string, content Content) *Track {
	return &Track{
		ID:      id,
		Name:    name,
		Content: content,
		Enabled: true,
		Volume:  DefaultVolume,
		Delay: Delay{
			Time:     DefaultDelay,
			Feedback: DefaultFeedback,
			Wet:      DefaultWet,
		},
		Reverb: Reverb{Wet: DefaultReverb},
	}
}

// Kind возвращает вид содержимого дорожки
func (t *Track) Kind() Kind {
	if t.Content == nil {
		return KindAudio
	}
	return t.Content.Kind()
}

// HasContent сообщает, есть ли у дорожки звук для воспроизведения
func (t *Track) HasContent() bool {
	if t.Content == nil {
		return false
	}
	if a, ok := t.Content.(*Audio); ok {
		return a.Data.Len() > 0
	}
	return true
}

// Duration возвращает длительность дорожки в секундах
func (t *Track) Duration(tempo int) float64 {
	if t.Content == nil {
		return 0
	}
	return t.Content.Duration(tempo)
}

// Buffer возвращает звук дорожки или nil
func (t *Track) Buffer(tempo int, sr beep.SampleRate) *dsp.Buffer {
	if !t.HasContent() {
		return nil
	}
	return t.Content.Buffer(tempo, sr)
}

// Instrument возвращает инструмент дорожки или nil для звуковой дорожки
func (t *Track) Instrument() *Instrument {
	in, _ := t.Content.(*Instrument)
	return in
}

// Params возвращает параметры цепочки эффектов
func (t *Track) Params() fx.Params {
	return fx.Params{
		Volume:        t.Volume,
		Pan:           t.Pan,
		Muted:         t.Muted,
		EQEnabled:     t.EQ.Enabled,
		EQLow:         t.EQ.Low,
		EQHigh:        t.EQ.High,
		DelayEnabled:  t.Delay.Enabled,
		DelayTime:     t.Delay.Time,
		DelayFeedback: t.Delay.Feedback,
		DelayWet:      t.Delay.Wet,
		ReverbEnabled: t.Reverb.Enabled,
		ReverbWet:     t.Reverb.Wet,
	}
}

// Plan возвращает описание цепочки эффектов дорожки
func (t *Track) Plan() fx.Plan {
	return fx.NewPlan(t.Params())
}

// BuildFxChain собирает цепочку эффектов дорожки
func (t *Track) BuildFxChain(ctx fx.Context) *fx.Chain {
	return fx.Compile(ctx, t.Plan())
}

// Normalize приводит параметры к допустимым диапазонам
func (t *Track) Normalize() {
	t.Volume = clamp(t.Volume, 0, MaxVolume)
	t.Pan = clamp(t.Pan, -1, 1)
	t.EQ.Low = clamp(t.EQ.Low, -1, 1)
	t.EQ.High = clamp(t.EQ.High, -1, 1)
	t.Delay.Time = clamp(t.Delay.Time, MinDelayTime, MaxDelayTime)
	t.Delay.Feedback = clamp(t.Delay.Feedback, 0, MaxFeedback)
	t.Delay.Wet = clamp(t.Delay.Wet, 0, 1)
	t.Reverb.Wet = clamp(t.Reverb.Wet, 0, 1)
}

// Clone возвращает копию дорожки. Звуковой буфер общий, паттерн копируется.
func (t *Track) Clone() *Track {
	c := *t
	if in := t.Instrument(); in != nil {
		copied := *in
		c.Content = &copied
	}
	return &c
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
