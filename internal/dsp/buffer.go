// Package dsp содержит базовые примитивы обработки сигнала: осцилляторы,
// буферы сэмплов, фильтры, линии задержки и свертку
package dsp

import (
	"errors"
	"fmt"

	"github.com/gopxl/beep"
	"github.com/viterin/vek"
)

// ErrOutOfRange возвращается при обращении за пределы буфера
var ErrOutOfRange = errors.New("позиция за пределами буфера")

// Buffer хранит декодированный или синтезированный звук без квантования.
// Моно-буферы дублируют канал в обе ячейки кадра.
type Buffer struct {
	Format  beep.Format
	Samples [][2]float64
}

// NewBuffer создает буфер заданной длины, заполненный тишиной
func NewBuffer(format beep.Format, frames int) *Buffer {
	if frames < 0 {
		frames = 0
	}
	return &Buffer{
		Format:  format,
		Samples: make([][2]float64, frames),
	}
}

// FromStreamer читает стример до конца и сохраняет все сэмплы в буфер
func FromStreamer(format beep.Format, s beep.Streamer) (*Buffer, error) {
	buf := &Buffer{Format: format}
	var chunk [512][2]float64
	for {
		n, ok := s.Stream(chunk[:])
		buf.Samples = append(buf.Samples, chunk[:n]...)
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения потока: %w", err)
	}
	return buf, nil
}

// Len возвращает количество кадров
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Samples)
}

// SampleRate возвращает частоту дискретизации буфера
func (b *Buffer) SampleRate() beep.SampleRate {
	return b.Format.SampleRate
}

// Channels возвращает число каналов (1 или 2)
func (b *Buffer) Channels() int {
	switch {
	case b.Format.NumChannels <= 0:
		return 2
	case b.Format.NumChannels > 2:
		return 2
	}
	return b.Format.NumChannels
}

// Duration возвращает длительность буфера в секундах
func (b *Buffer) Duration() float64 {
	if b == nil || b.Format.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.Format.SampleRate)
}

// Channel возвращает копию одного канала
func (b *Buffer) Channel(ch int) []float64 {
	out := make([]float64, len(b.Samples))
	for i := range b.Samples {
		out[i] = b.Samples[i][ch&1]
	}
	return out
}

// Peak возвращает максимальную абсолютную амплитуду по всем каналам
func (b *Buffer) Peak() float64 {
	if b.Len() == 0 {
		return 0
	}
	peak := 0.0
	for ch := 0; ch < 2; ch++ {
		if m := vek.Max(vek.Abs(b.Channel(ch))); m > peak {
			peak = m
		}
	}
	return peak
}

// Streamer возвращает стример для кадров [from, to)
func (b *Buffer) Streamer(from, to int) beep.StreamSeeker {
	if from < 0 || to > len(b.Samples) || from > to {
		panic(fmt.Sprintf("dsp.Buffer.Streamer(%d, %d): неверный диапазон для буфера длиной %d", from, to, len(b.Samples)))
	}
	return &bufferStreamer{buf: b, from: from, to: to, pos: from}
}

type bufferStreamer struct {
	buf      *Buffer
	from, to int
	pos      int
}

func (s *bufferStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.pos >= s.to {
		return 0, false
	}
	n = copy(samples, s.buf.Samples[s.pos:s.to])
	s.pos += n
	return n, true
}

func (s *bufferStreamer) Err() error { return nil }

func (s *bufferStreamer) Len() int { return s.to - s.from }

func (s *bufferStreamer) Position() int { return s.pos - s.from }

func (s *bufferStreamer) Seek(p int) error {
	if p < 0 || p > s.Len() {
		return fmt.Errorf("%w: %d", ErrOutOfRange, p)
	}
	s.pos = s.from + p
	return nil
}
