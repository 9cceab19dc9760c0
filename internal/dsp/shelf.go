package dsp

import (
	"math"
	"math/cmplx"

	"github.com/gopxl/beep"
)

// ShelfKind определяет тип полочного фильтра
type ShelfKind int

const (
	// LowShelf поднимает или срезает частоты ниже граничной
	LowShelf ShelfKind = iota
	// HighShelf поднимает или срезает частоты выше граничной
	HighShelf
)

// ShelfQ - добротность полки, соответствует наклону S=1
const ShelfQ = 1 / math.Sqrt2

// Coefficients - коэффициенты биквадратной секции, нормированные на a0
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Gain возвращает модуль передаточной функции на частоте freq
func (c Coefficients) Gain(freq float64, sr beep.SampleRate) float64 {
	w := 2 * math.Pi * freq / float64(sr)
	z1 := complex(math.Cos(w), -math.Sin(w))
	z2 := z1 * z1
	num := complex(c.B0, 0) + complex(c.B1, 0)*z1 + complex(c.B2, 0)*z2
	den := 1 + complex(c.A1, 0)*z1 + complex(c.A2, 0)*z2
	return cmplx.Abs(num / den)
}

// ShelfCoefficients рассчитывает полку по формулам RBJ cookbook
func ShelfCoefficients(kind ShelfKind, freq, gainDB, q float64, sr beep.SampleRate) Coefficients {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / float64(sr)
	cosw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	sqa := 2 * math.Sqrt(a) * alpha

	var b0, b1, b2, a0, a1, a2 float64
	switch kind {
	case HighShelf:
		b0 = a * ((a + 1) + (a-1)*cosw + sqa)
		b1 = -2 * a * ((a - 1) + (a+1)*cosw)
		b2 = a * ((a + 1) + (a-1)*cosw - sqa)
		a0 = (a + 1) - (a-1)*cosw + sqa
		a1 = 2 * ((a - 1) - (a+1)*cosw)
		a2 = (a + 1) - (a-1)*cosw - sqa
	default:
		b0 = a * ((a + 1) - (a-1)*cosw + sqa)
		b1 = 2 * a * ((a - 1) - (a+1)*cosw)
		b2 = a * ((a + 1) - (a-1)*cosw - sqa)
		a0 = (a + 1) + (a-1)*cosw + sqa
		a1 = -2 * ((a - 1) + (a+1)*cosw)
		a2 = (a + 1) + (a-1)*cosw - sqa
	}

	return Coefficients{B0: b0 / a0, B1: b1 / a0, B2: b2 / a0, A1: a1 / a0, A2: a2 / a0}
}

// Section - одноканальная биквадратная секция в прямой форме I
type Section struct {
	c      Coefficients
	x1, x2 float64
	y1, y2 float64
}

// NewSection создает секцию с нулевым состоянием
func NewSection(c Coefficients) *Section {
	return &Section{c: c}
}

// ProcessSample фильтрует один сэмпл
func (s *Section) ProcessSample(x float64) float64 {
	y := s.c.B0*x + s.c.B1*s.x1 + s.c.B2*s.x2 - s.c.A1*s.y1 - s.c.A2*s.y2
	s.x2, s.x1 = s.x1, x
	s.y2, s.y1 = s.y1, y
	return y
}

// Shelf - стерео полочный фильтр: по секции на канал
type Shelf struct {
	Streamer beep.Streamer
	sections [2]*Section
}

// NewShelf создает полочный фильтр с усилением gainDB на частоте freq
func NewShelf(kind ShelfKind, sr beep.SampleRate, freq, gainDB float64, s beep.Streamer) *Shelf {
	c := ShelfCoefficients(kind, freq, gainDB, ShelfQ, sr)
	return &Shelf{
		Streamer: s,
		sections: [2]*Section{NewSection(c), NewSection(c)},
	}
}

// Stream фильтрует сэмплы на месте
func (f *Shelf) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = f.Streamer.Stream(samples)
	for i := range samples[:n] {
		samples[i][0] = f.sections[0].ProcessSample(samples[i][0])
		samples[i][1] = f.sections[1].ProcessSample(samples[i][1])
	}
	return n, ok
}

// Err возвращает ошибку вложенного стримера
func (f *Shelf) Err() error {
	return f.Streamer.Err()
}
