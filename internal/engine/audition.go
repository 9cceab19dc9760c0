package engine

import (
	"github.com/gopxl/beep"

	"github.com/hazadus/go-mixdown/internal/dsp"
)

// Audition прослушивает буфер мимо транспорта и цепочек эффектов.
// Предыдущее прослушивание останавливается.
func (s *Session) Audition(buf *dsp.Buffer) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isInitialized || buf.Len() == 0 {
		return
	}
	s.stopAudition()

	var src beep.Streamer = buf.Streamer(0, buf.Len())
	if rate := buf.SampleRate(); rate > 0 && rate != s.cfg.SampleRate {
		src = beep.Resample(4, rate, s.cfg.SampleRate, src)
	}
	ctrl := &beep.Ctrl{Streamer: src}

	s.backend.Lock()
	s.bus.add(ctrl)
	s.backend.Unlock()
	s.audition = ctrl
}

// StopAudition останавливает прослушивание
func (s *Session) StopAudition() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.stopAudition()
}

// Auditioning сообщает, идет ли прослушивание
func (s *Session) Auditioning() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.audition != nil
}

func (s *Session) stopAudition() {
	if s.audition == nil {
		return
	}
	s.backend.Lock()
	s.audition.Streamer = nil
	s.backend.Unlock()
	s.audition = nil
}
