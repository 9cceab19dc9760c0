package dsp

import (
	"math"
	"math/rand"

	"github.com/gopxl/beep"
	"github.com/viterin/vek"
)

const (
	// impulseCalibration - целевая средняя мощность нормализованной характеристики
	impulseCalibration = 0.00125
	// impulseMinPower - нижний предел мощности, почти тихая характеристика не усиливается бесконечно
	impulseMinPower = 0.000125
	// impulseReferenceRate - частота, к которой приводится громкость характеристики
	impulseReferenceRate = 44100
)

// Impulse генерирует стерео импульсную характеристику реверберации:
// белый шум с кубическим затуханием. Одинаковый seed дает одинаковый буфер.
func Impulse(sr beep.SampleRate, seconds float64, seed int64) *Buffer {
	length := int(math.Floor(seconds * float64(sr)))
	ir := NewBuffer(beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2}, length)
	rnd := rand.New(rand.NewSource(seed))
	for ch := 0; ch < 2; ch++ {
		for i := 0; i < length; i++ {
			t := float64(i) / float64(length)
			ir.Samples[i][ch] = (rnd.Float64()*2 - 1) * math.Pow(1-t, 3)
		}
	}
	return ir
}

// ImpulseScale возвращает множитель нормализации импульсной характеристики.
// Среднеквадратичное значение по всем каналам приводится к impulseCalibration,
// затем множитель пересчитывается к частоте impulseReferenceRate.
func ImpulseScale(ir *Buffer) float64 {
	if ir == nil || ir.Len() == 0 {
		return 1
	}
	channels := ir.Channels()
	var sum float64
	for ch := 0; ch < channels; ch++ {
		c := ir.Channel(ch)
		sum += vek.Dot(c, c)
	}
	power := math.Sqrt(sum / float64(channels*ir.Len()))
	if math.IsNaN(power) || math.IsInf(power, 0) || power < impulseMinPower {
		power = impulseMinPower
	}
	scale := impulseCalibration / power
	if sr := ir.SampleRate(); sr > 0 {
		scale *= impulseReferenceRate / float64(sr)
	}
	return scale
}

// NormalizeImpulse возвращает копию характеристики, умноженную на ImpulseScale
func NormalizeImpulse(ir *Buffer) *Buffer {
	out := NewBuffer(ir.Format, ir.Len())
	scale := ImpulseScale(ir)
	for i, frame := range ir.Samples {
		out.Samples[i] = [2]float64{frame[0] * scale, frame[1] * scale}
	}
	return out
}
