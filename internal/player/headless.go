package player

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
)

// Headless - вывод без устройства. Звук забирается вручную через Pull,
// что позволяет рендерить и тестировать сессию без звуковой карты.
type Headless struct {
	// InitErr, если задан, возвращается из Init
	InitErr error

	mutex         sync.Mutex
	isInitialized bool
	sr            beep.SampleRate
	mixer         beep.Mixer
}

// NewHeadless создает вывод без устройства
func NewHeadless() *Headless {
	return &Headless{}
}

// Init запоминает частоту дискретизации
func (h *Headless) Init(sr beep.SampleRate) error {
	if h.InitErr != nil {
		return h.InitErr
	}
	h.mutex.Lock()
	h.sr = sr
	h.isInitialized = true
	h.mutex.Unlock()
	return nil
}

// Play добавляет стример в вывод
func (h *Headless) Play(s beep.Streamer) {
	h.mutex.Lock()
	h.mixer.Add(s)
	h.mutex.Unlock()
}

// Lock блокирует поток вывода
func (h *Headless) Lock() {
	h.mutex.Lock()
}

// Unlock разблокирует поток вывода
func (h *Headless) Unlock() {
	h.mutex.Unlock()
}

// Pull забирает следующие frames кадров вывода
func (h *Headless) Pull(frames int) [][2]float64 {
	out := make([][2]float64, frames)
	h.mutex.Lock()
	if h.isInitialized {
		n, _ := h.mixer.Stream(out)
		clear(out[n:])
	}
	h.mutex.Unlock()
	return out
}

// Advance прокручивает вывод на d, отбрасывая звук
func (h *Headless) Advance(d time.Duration) {
	h.mutex.Lock()
	frames := h.sr.N(d)
	h.mutex.Unlock()

	for frames > 0 {
		n := min(frames, 512)
		h.Pull(n)
		frames -= n
	}
}

// SampleRate возвращает частоту дискретизации после Init
func (h *Headless) SampleRate() beep.SampleRate {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.sr
}

// Close останавливает вывод
func (h *Headless) Close() error {
	h.mutex.Lock()
	h.mixer.Clear()
	h.isInitialized = false
	h.mutex.Unlock()
	return nil
}
