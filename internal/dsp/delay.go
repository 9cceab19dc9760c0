package dsp

import (
	"math"

	"github.com/gopxl/beep"
)

// DelayLine - линия задержки с обратной связью.
// Выход - вход, задержанный на D кадров, плюс повторы с коэффициентом Feedback.
type DelayLine struct {
	Streamer beep.Streamer
	Feedback float64

	buf [][2]float64
	pos int
}

// NewDelayLine создает линию задержки на seconds секунд (не меньше одного кадра)
func NewDelayLine(sr beep.SampleRate, seconds, feedback float64, s beep.Streamer) *DelayLine {
	frames := int(math.Round(seconds * float64(sr)))
	if frames < 1 {
		frames = 1
	}
	return &DelayLine{
		Streamer: s,
		Feedback: feedback,
		buf:      make([][2]float64, frames),
	}
}

// Frames возвращает длину задержки в кадрах
func (d *DelayLine) Frames() int {
	return len(d.buf)
}

// Stream заменяет входные сэмплы задержанным сигналом
func (d *DelayLine) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = d.Streamer.Stream(samples)
	for i := range samples[:n] {
		out := d.buf[d.pos]
		d.buf[d.pos][0] = samples[i][0] + d.Feedback*out[0]
		d.buf[d.pos][1] = samples[i][1] + d.Feedback*out[1]
		samples[i] = out
		d.pos++
		if d.pos == len(d.buf) {
			d.pos = 0
		}
	}
	return n, ok
}

// Err возвращает ошибку вложенного стримера
func (d *DelayLine) Err() error {
	return d.Streamer.Err()
}
