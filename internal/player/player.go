// Package player содержит бэкенды вывода звука для движка сессии
package player

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// DefaultBufferSize - размер буфера системного устройства вывода
const DefaultBufferSize = time.Second / 10

// Speaker выводит звук через системное устройство (oto)
type Speaker struct {
	mutex         sync.Mutex
	isInitialized bool
	bufferSize    time.Duration
}

// NewSpeaker создает новый экземпляр вывода на динамики
func NewSpeaker(bufferSize time.Duration) *Speaker {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Speaker{bufferSize: bufferSize}
}

// Init инициализирует устройство вывода (только один раз)
func (p *Speaker) Init(sr beep.SampleRate) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.isInitialized {
		return nil
	}
	if err := speaker.Init(sr, sr.N(p.bufferSize)); err != nil {
		return fmt.Errorf("ошибка инициализации динамиков: %w", err)
	}
	p.isInitialized = true
	return nil
}

// Play добавляет стример в вывод
func (p *Speaker) Play(s beep.Streamer) {
	speaker.Play(s)
}

// Lock блокирует поток вывода
func (p *Speaker) Lock() {
	speaker.Lock()
}

// Unlock разблокирует поток вывода
func (p *Speaker) Unlock() {
	speaker.Unlock()
}

// Close останавливает вывод и освобождает устройство
func (p *Speaker) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.isInitialized {
		return nil
	}
	speaker.Clear()
	speaker.Close()
	p.isInitialized = false
	return nil
}
