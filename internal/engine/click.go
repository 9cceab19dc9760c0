package engine

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
)

// Параметры щелчка метронома
const (
	clickFreq   = 1000.0
	clickPeak   = 0.7
	clickFloor  = 0.001
	clickAttack = 5 * time.Millisecond
	clickDecay  = 80 * time.Millisecond
	clickLength = 100 * time.Millisecond
	clickOffset = time.Millisecond
)

// clickState хранит состояние метронома
type clickState struct {
	enabled bool
	lastIdx int
}

// clickEnvelope накладывает огибающую щелчка: линейная атака до clickPeak
// за 5 мс, экспоненциальный спад до clickFloor к 80 мс
type clickEnvelope struct {
	Streamer beep.Streamer
	sr       beep.SampleRate
	pos      int
}

func (e *clickEnvelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.Streamer.Stream(samples)
	for i := range samples[:n] {
		g := clickGain(e.sr.D(e.pos).Seconds())
		samples[i][0] *= g
		samples[i][1] *= g
		e.pos++
	}
	return n, ok
}

func (e *clickEnvelope) Err() error {
	return e.Streamer.Err()
}

func clickGain(t float64) float64 {
	attack := clickAttack.Seconds()
	decay := clickDecay.Seconds()
	switch {
	case t < attack:
		return clickPeak * t / attack
	case t < decay:
		return clickPeak * math.Pow(clickFloor/clickPeak, (t-attack)/(decay-attack))
	}
	return clickFloor
}

// newClick создает звук одного щелчка метронома
func newClick(sr beep.SampleRate) (beep.Streamer, error) {
	tone, err := generators.SquareTone(sr, clickFreq)
	if err != nil {
		return nil, err
	}
	env := &clickEnvelope{Streamer: tone, sr: sr}
	return beep.Seq(beep.Silence(sr.N(clickOffset)), beep.Take(sr.N(clickLength), env)), nil
}

// beatIndex возвращает номер доли для позиции playhead
func beatIndex(playhead float64, tempo int) int {
	spb := 60 / float64(tempo)
	return int(math.Floor(playhead / spb))
}

// edgeBefore возвращает номер доли, после которого сработает первая граница
// в позиции playhead или позже
func edgeBefore(playhead float64, tempo int) int {
	spb := 60 / float64(tempo)
	return int(math.Ceil(playhead/spb)) - 1
}
