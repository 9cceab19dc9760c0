package dsp

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/gopxl/beep"
	"github.com/mjibson/go-dsp/fft"
	"github.com/viterin/vek"
)

// DefaultTapSize - размер окна анализатора мастер-шины
const DefaultTapSize = 2048

// Tap пропускает звук без изменений и копирует моно-сумму в кольцевой буфер
// для анализатора спектра
type Tap struct {
	s    beep.Streamer
	mu   sync.Mutex
	buf  []float64
	pos  int
	size int
}

// NewTap оборачивает стример кольцевым буфером заданного размера
func NewTap(s beep.Streamer, size int) *Tap {
	if size <= 0 {
		size = DefaultTapSize
	}
	return &Tap{
		s:    s,
		buf:  make([]float64, size),
		size: size,
	}
}

// Stream пропускает сэмплы и сохраняет их моно-сумму
func (t *Tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)
	t.mu.Lock()
	for i := range n {
		t.buf[t.pos] = (samples[i][0] + samples[i][1]) / 2
		t.pos = (t.pos + 1) % t.size
	}
	t.mu.Unlock()
	return n, ok
}

// Err возвращает ошибку вложенного стримера
func (t *Tap) Err() error {
	return t.s.Err()
}

// Samples возвращает последние n сэмплов в хронологическом порядке
func (t *Tap) Samples(n int) []float64 {
	if n > t.size {
		n = t.size
	}
	out := make([]float64, n)
	t.mu.Lock()
	start := (t.pos - n + t.size) % t.size
	for i := range n {
		out[i] = t.buf[(start+i)%t.size]
	}
	t.mu.Unlock()
	return out
}

// Spectrum возвращает амплитудный спектр последних n сэмплов (n/2 полос)
// с окном Ханна
func (t *Tap) Spectrum(n int) []float64 {
	frame := t.Samples(n)
	if len(frame) < 2 {
		return nil
	}
	vek.Mul_Inplace(frame, hann(len(frame)))
	bins := fft.FFTReal(frame)
	out := make([]float64, len(bins)/2)
	for i := range out {
		out[i] = cmplx.Abs(bins[i]) / float64(len(frame))
	}
	return out
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}
