package dsp

import (
	"fmt"
	"math"
	"strings"
)

// Wave задает форму волны осциллятора
type Wave string

// Поддерживаемые формы волны
const (
	Sine     Wave = "sine"
	Square   Wave = "square"
	Triangle Wave = "triangle"
	Sawtooth Wave = "sawtooth"
)

// Waves перечисляет формы волны в порядке переключения
var Waves = []Wave{Sine, Square, Triangle, Sawtooth}

// ParseWave разбирает название формы волны
func ParseWave(s string) (Wave, error) {
	w := Wave(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Waves {
		if w == known {
			return w, nil
		}
	}
	return Sine, fmt.Errorf("неизвестная форма волны: %q", s)
}

// Next возвращает следующую форму волны по кругу
func (w Wave) Next() Wave {
	for i, known := range Waves {
		if known == w {
			return Waves[(i+1)%len(Waves)]
		}
	}
	return Sine
}

// Osc возвращает значение осциллятора в диапазоне [-1, 1] для фазы в радианах.
// Неизвестная форма волны считается синусом.
func Osc(w Wave, phase float64) float64 {
	switch w {
	case Square:
		s := math.Sin(phase)
		switch {
		case s > 0:
			return 1
		case s < 0:
			return -1
		}
		return 0
	case Sawtooth:
		p := phase / (2 * math.Pi)
		return 2 * (p - math.Floor(p+0.5))
	case Triangle:
		return math.Asin(math.Sin(phase)) * 2 / math.Pi
	default:
		return math.Sin(phase)
	}
}
