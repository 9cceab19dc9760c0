package engine

import (
	"time"

	"github.com/gopxl/beep"
)

const (
	// MinTempo - нижний предел темпа. Верхнего предела нет.
	MinTempo = 1
	// MaxMasterGain - верхний предел усиления мастер-шины
	MaxMasterGain = 2.0
)

// Config - настройки движка
type Config struct {
	SampleRate    beep.SampleRate
	Tempo         int
	MasterGain    float64
	Click         bool
	Loop          LoopRegion
	ScheduleLead  time.Duration
	ReverbSeconds float64
	ReverbSeed    int64
}

// DefaultConfig возвращает настройки по умолчанию
func DefaultConfig() Config {
	return Config{
		SampleRate:    44100,
		Tempo:         100,
		MasterGain:    0.8,
		Click:         true,
		Loop:          LoopRegion{Start: 0, End: 8},
		ScheduleLead:  20 * time.Millisecond,
		ReverbSeconds: 1.8,
		ReverbSeed:    1,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SampleRate <= 0 {
		c.SampleRate = def.SampleRate
	}
	if c.Tempo <= 0 {
		c.Tempo = def.Tempo
	}
	c.Tempo = clampTempo(c.Tempo)
	if c.MasterGain < 0 {
		c.MasterGain = 0
	}
	if c.MasterGain > MaxMasterGain {
		c.MasterGain = MaxMasterGain
	}
	if c.ScheduleLead < 0 {
		c.ScheduleLead = 0
	}
	if c.ReverbSeconds <= 0 {
		c.ReverbSeconds = def.ReverbSeconds
	}
	return c
}

func clampTempo(bpm int) int {
	return max(MinTempo, bpm)
}
