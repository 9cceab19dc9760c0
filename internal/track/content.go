package track

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gopxl/beep"

	"github.com/hazadus/go-mixdown/internal/dsp"
)

// Параметры встроенного инструмента
const (
	// Steps - число шагов паттерна
	Steps = 8
	// ReferenceHz - частота ноты со смещением 0
	ReferenceHz = 220.0
	// NoteLength - доля шага, в течение которой звучит нота
	NoteLength = 0.9
	// NoteLevel - пиковая амплитуда ноты
	NoteLevel = 0.4
)

// Kind - вид содержимого дорожки
type Kind string

const (
	KindAudio      Kind = "audio"
	KindInstrument Kind = "instrument"
)

// Content - содержимое дорожки: загруженный звук или инструмент
type Content interface {
	Kind() Kind
	// Duration возвращает длительность в секундах при заданном темпе
	Duration(tempo int) float64
	// Buffer возвращает звук дорожки. Может вернуть nil, если звук еще не загружен.
	Buffer(tempo int, sr beep.SampleRate) *dsp.Buffer
}

// SecondsPerBeat возвращает длительность доли в секундах
func SecondsPerBeat(tempo int) float64 {
	if tempo < 1 {
		tempo = 1
	}
	return 60 / float64(tempo)
}

// Audio - декодированный звуковой файл
type Audio struct {
	Data *dsp.Buffer
}

// ErrInvalidPattern возвращается при разборе некорректного паттерна
var ErrInvalidPattern = errors.New("некорректный паттерн")

// ParsePattern разбирает паттерн вида "0,7,0,7,0,10,0,12".
// Недостающие шаги заполняются паузами.
func ParsePattern(s string) ([Steps]int, error) {
	var pattern [Steps]int
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) > Steps {
		return pattern, fmt.Errorf("%w: больше %d шагов", ErrInvalidPattern, Steps)
	}
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return pattern, fmt.Errorf("%w: %q", ErrInvalidPattern, f)
		}
		pattern[i] = v
	}
	return pattern, nil
}

// FormatPattern записывает паттерн через запятую
func FormatPattern(pattern [Steps]int) string {
	parts := make([]string, Steps)
	for i, v := range pattern {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// Kind возвращает KindAudio
func (a *Audio) Kind() Kind { return KindAudio }

// Duration возвращает длительность буфера
func (a *Audio) Duration(int) float64 {
	return a.Data.Duration()
}

// Buffer возвращает буфер без изменений. Импорт приводит его к частоте сессии,
// остальные случаи частоты обрабатывает движок.
func (a *Audio) Buffer(int, beep.SampleRate) *dsp.Buffer {
	return a.Data
}

// Instrument - простой синтезатор с паттерном из восьми шагов.
// Значение шага - смещение в полутонах от ReferenceHz, 0 означает паузу.
type Instrument struct {
	Wave    dsp.Wave
	Pattern [Steps]int
}

// DefaultPattern - паттерн нового инструмента
var DefaultPattern = [Steps]int{0, 7, 0, 7, 0, 10, 0, 12}

// NewInstrument создает инструмент с синусом и паттерном по умолчанию
func NewInstrument() *Instrument {
	return &Instrument{Wave: dsp.Sine, Pattern: DefaultPattern}
}

// Kind возвращает KindInstrument
func (in *Instrument) Kind() Kind { return KindInstrument }

// Duration возвращает длительность паттерна: восемь долей
func (in *Instrument) Duration(tempo int) float64 {
	return Steps * SecondsPerBeat(tempo)
}

// Frequency возвращает частоту шага в герцах
func Frequency(semitones int) float64 {
	return ReferenceHz * math.Pow(2, float64(semitones)/12)
}

// Buffer синтезирует паттерн. Результат детерминирован для одинаковых
// темпа, частоты дискретизации и параметров инструмента.
func (in *Instrument) Buffer(tempo int, sr beep.SampleRate) *dsp.Buffer {
	spb := SecondsPerBeat(tempo)
	rate := float64(sr)
	length := int(math.Ceil(Steps * spb * rate))
	buf := dsp.NewBuffer(beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2}, length)

	for i, note := range in.Pattern {
		if note == 0 {
			continue
		}
		freq := Frequency(note)
		start := int(math.Floor(float64(i) * spb * rate))
		end := min(length, start+int(math.Floor(spb*NoteLength*rate)))
		for n := start; n < end; n++ {
			tt := float64(n-start) / rate
			env := math.Min(1, tt*10) * math.Exp(-3*tt)
			val := dsp.Osc(in.Wave, 2*math.Pi*freq*(float64(n)/rate)) * env * NoteLevel
			buf.Samples[n][0] += val
			buf.Samples[n][1] += val
		}
	}
	return buf
}
