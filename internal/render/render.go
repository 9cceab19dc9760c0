// Package render выполняет офлайн-рендеринг сессии в стерео буфер
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/hazadus/go-mixdown/internal/dsp"
	"github.com/hazadus/go-mixdown/internal/fx"
	"github.com/hazadus/go-mixdown/internal/track"
)

// Длительность рендера: не меньше MinSeconds и на TailSeconds длиннее самой длинной дорожки
const (
	MinSeconds  = 8.0
	TailSeconds = 1.0
)

// blockSize - размер блока рендеринга в кадрах
const blockSize = 4096

// ErrInvalidSampleRate возвращается при нулевой частоте дискретизации
var ErrInvalidSampleRate = errors.New("неверная частота дискретизации")

// Snapshot - неизменяемый снимок сессии для рендеринга
type Snapshot struct {
	Tracks     []*track.Track
	Tempo      int
	MasterGain float64
	SampleRate beep.SampleRate
	Impulse    *dsp.Buffer
}

// Length возвращает длительность рендера в секундах
func Length(snap Snapshot) float64 {
	longest := 0.0
	for _, t := range snap.Tracks {
		longest = math.Max(longest, t.Duration(snap.Tempo))
	}
	return math.Max(MinSeconds, longest+TailSeconds)
}

// Frames возвращает число кадров рендера
func Frames(snap Snapshot) int {
	return int(math.Ceil(Length(snap) * float64(snap.SampleRate)))
}

// ProgressFunc получает число готовых и общее число кадров
type ProgressFunc func(done, total int)

// Renderer рендерит снимки сессии
type Renderer struct {
	logger *slog.Logger
}

// NewRenderer создает новый экземпляр Renderer
func NewRenderer(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{logger: logger}
}

// Render сводит все звучащие дорожки снимка в стерео буфер.
// Дорожку, которую не удалось собрать, пропускает.
func (r *Renderer) Render(ctx context.Context, snap Snapshot, progress ProgressFunc) (*dsp.Buffer, error) {
	if snap.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	format := beep.Format{SampleRate: snap.SampleRate, NumChannels: 2, Precision: 2}
	fctx := fx.NewContext(format, snap.Impulse)
	total := Frames(snap)

	var mixer beep.Mixer
	var chains []*fx.Chain
	defer func() {
		for _, c := range chains {
			c.Dispose()
		}
	}()

	for _, t := range snap.Tracks {
		if !t.Enabled {
			continue
		}
		chain, err := r.buildTrack(t, snap, fctx)
		if err != nil {
			r.logger.Warn("дорожка пропущена при рендеринге", "track", t.Name, "error", err)
			continue
		}
		if chain == nil {
			continue
		}
		chains = append(chains, chain)
		mixer.Add(chain.Output())
	}

	master := &effects.Gain{Streamer: &mixer, Gain: snap.MasterGain - 1}
	out := dsp.NewBuffer(format, total)

	r.logger.Debug("рендеринг начат",
		"tracks", len(chains),
		"frames", total,
		"sample_rate", int(snap.SampleRate))

	for done := 0; done < total; {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("рендеринг прерван: %w", err)
		}
		n := min(blockSize, total-done)
		block := out.Samples[done : done+n]
		m, _ := master.Stream(block)
		clear(block[m:])
		done += n
		if progress != nil {
			progress(done, total)
		}
	}

	r.logger.Debug("рендеринг завершен", "peak", out.Peak())
	return out, nil
}

func (r *Renderer) buildTrack(t *track.Track, snap Snapshot, fctx fx.Context) (chain *fx.Chain, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("ошибка сборки дорожки %q: %v", t.Name, rec)
		}
	}()

	buf := t.Buffer(snap.Tempo, snap.SampleRate)
	if buf.Len() == 0 {
		return nil, nil
	}

	var src beep.Streamer = buf.Streamer(0, buf.Len())
	if rate := buf.SampleRate(); rate > 0 && rate != snap.SampleRate {
		src = beep.Resample(4, rate, snap.SampleRate, src)
	}

	chain = t.BuildFxChain(fctx)
	chain.Connect(src)
	return chain, nil
}
