package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"

	"github.com/hazadus/go-mixdown/internal/dsp"
	"github.com/hazadus/go-mixdown/internal/fx"
	"github.com/hazadus/go-mixdown/internal/track"
)

// offsetEpsilon - отступ от конца буфера, если позиция за его пределами
const offsetEpsilon = 0.001

// minLoopRemainder - минимальная длительность источника в петле
const minLoopRemainder = time.Millisecond

// voice - звучащий источник дорожки с его цепочкой эффектов
type voice struct {
	trackID    int
	generation uint64
	offset     float64
	bounded    bool
	chain      *fx.Chain
}

// stop отключает источник и освобождает цепочку. Вызывать под блокировкой вывода.
func (v *voice) stop() {
	v.chain.Disconnect()
	v.chain.Dispose()
}

// VoiceInfo описывает активный голос
type VoiceInfo struct {
	TrackID    int
	Generation uint64
	Offset     float64
	Bounded    bool
}

// buildVoice собирает голос дорожки с текущей позиции. Вызывать под s.mutex.
func (s *Session) buildVoice(t *track.Track, buf *dsp.Buffer, gen uint64) (v *voice, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("ошибка сборки голоса: %v", rec)
		}
	}()

	offset := math.Min(s.playhead, math.Max(0, buf.Duration()-offsetEpsilon))
	rate := buf.SampleRate()
	if rate <= 0 {
		rate = s.cfg.SampleRate
	}
	from := min(buf.Len(), int(offset*float64(rate)))

	var src beep.Streamer = buf.Streamer(from, buf.Len())
	if rate != s.cfg.SampleRate {
		src = beep.Resample(4, rate, s.cfg.SampleRate, src)
	}

	bounded := false
	if s.loop.Enabled {
		limited, err := s.boundToLoop(src)
		if err != nil {
			s.logger.Warn("источник запущен без ограничения петлей",
				"track", t.Name, "error", err)
		} else {
			src = limited
			bounded = true
		}
	}

	src = beep.Seq(beep.Silence(s.cfg.SampleRate.N(s.cfg.ScheduleLead)), src)

	chain := t.BuildFxChain(s.fxContext)
	chain.Connect(src)

	return &voice{
		trackID:    t.ID,
		generation: gen,
		offset:     offset,
		bounded:    bounded,
		chain:      chain,
	}, nil
}

// boundToLoop ограничивает источник остатком петли от текущей позиции
func (s *Session) boundToLoop(src beep.Streamer) (beep.Streamer, error) {
	if !s.loop.Valid() {
		return nil, fmt.Errorf("%w: %.3f..%.3f", ErrInvalidLoop, s.loop.Start, s.loop.End)
	}
	remaining := math.Max(minLoopRemainder.Seconds(), s.loop.End-s.playhead)
	frames := s.cfg.SampleRate.N(time.Duration(remaining * float64(time.Second)))
	return beep.Take(frames, src), nil
}

// startVoices останавливает текущие голоса и запускает новое поколение
// для всех звучащих дорожек. Вызывать под s.mutex.
func (s *Session) startVoices() {
	s.stopVoices()
	s.generation++
	gen := s.generation

	voices := make(map[int]*voice)
	for _, t := range s.tracks.ListTracks() {
		if !t.Enabled {
			continue
		}
		buf := t.Buffer(s.tempo, s.cfg.SampleRate)
		if buf.Len() == 0 {
			continue
		}
		v, err := s.buildVoice(t, buf, gen)
		if err != nil {
			s.logger.Error("не удалось запустить дорожку", "track", t.Name, "error", err)
			continue
		}
		voices[t.ID] = v
	}

	s.backend.Lock()
	for _, v := range voices {
		s.bus.add(v.chain.Output())
	}
	s.backend.Unlock()

	s.voices = voices
	s.logger.Debug("голоса запущены",
		"generation", gen,
		"voices", len(voices),
		"playhead", s.playhead)
}

// stopVoices останавливает все голоса. Повторный вызов безопасен.
func (s *Session) stopVoices() {
	if len(s.voices) == 0 {
		return
	}
	s.backend.Lock()
	for _, v := range s.voices {
		v.stop()
	}
	s.backend.Unlock()
	s.voices = map[int]*voice{}
}
