// Package track содержит дорожки сессии и логику управления ими
package track

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hazadus/go-mixdown/internal/dsp"
)

var (
	// ErrTrackNotFound возвращается, если дорожки с указанным ID нет
	ErrTrackNotFound = errors.New("дорожка не найдена")
	// ErrNotPending возвращается при попытке задать звук дорожке, у которой он уже есть
	// или которая не является звуковой
	ErrNotPending = errors.New("дорожка не ожидает загрузки звука")
)

// Manager управляет дорожками сессии.
// После каждого изменения вызывает обработчик, заданный через OnChange.
type Manager struct {
	mutex    sync.RWMutex
	tracks   []*Track
	nextID   int
	onChange func()
}

// NewManager создает новый экземпляр Manager
func NewManager() *Manager {
	return &Manager{nextID: 1}
}

// OnChange задает обработчик изменений. Вызывается без удержания блокировок менеджера.
func (m *Manager) OnChange(fn func()) {
	m.mutex.Lock()
	m.onChange = fn
	m.mutex.Unlock()
}

// AddAudioTrack добавляет дорожку с загруженным звуком
func (m *Manager) AddAudioTrack(name string, buf *dsp.Buffer) *Track {
	return m.add(name, &Audio{Data: buf})
}

// AddPendingTrack добавляет звуковую дорожку, звук которой еще загружается
func (m *Manager) AddPendingTrack(name string) *Track {
	return m.add(name, &Audio{})
}

// AddInstrumentTrack добавляет дорожку со встроенным инструментом
func (m *Manager) AddInstrumentTrack() *Track {
	return m.AddInstrument("", NewInstrument())
}

// AddInstrument добавляет дорожку с заданным инструментом.
// Пустое имя заменяется на "Instrument N".
func (m *Manager) AddInstrument(name string, in *Instrument) *Track {
	if name == "" {
		m.mutex.RLock()
		name = fmt.Sprintf("Instrument %d", m.nextID)
		m.mutex.RUnlock()
	}
	return m.add(name, in)
}

func (m *Manager) add(name string, content Content) *Track {
	m.mutex.Lock()
	t := newTrack(m.nextID, name, content)
	m.nextID++
	m.tracks = append(m.tracks, t)
	m.recomputeEnabled()
	m.mutex.Unlock()

	m.notify()
	return t
}

// SetBuffer завершает загрузку дорожки, добавленной через AddPendingTrack.
// Звук задается один раз.
func (m *Manager) SetBuffer(id int, buf *dsp.Buffer) error {
	if buf == nil {
		return fmt.Errorf("%w: пустой буфер для дорожки %d", ErrNotPending, id)
	}

	m.mutex.Lock()
	t, err := m.find(id)
	if err != nil {
		m.mutex.Unlock()
		return err
	}
	audio, ok := t.Content.(*Audio)
	if !ok || audio.Data != nil {
		m.mutex.Unlock()
		return fmt.Errorf("%w: %d", ErrNotPending, id)
	}
	t.Content = &Audio{Data: buf}
	m.recomputeEnabled()
	m.mutex.Unlock()

	m.notify()
	return nil
}

// ListTracks возвращает список всех дорожек в порядке добавления
func (m *Manager) ListTracks() []*Track {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make([]*Track, len(m.tracks))
	copy(out, m.tracks)
	return out
}

// Snapshot возвращает копии всех дорожек
func (m *Manager) Snapshot() []*Track {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make([]*Track, len(m.tracks))
	for i, t := range m.tracks {
		out[i] = t.Clone()
	}
	return out
}

// Len возвращает количество дорожек
func (m *Manager) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.tracks)
}

// TrackByID возвращает дорожку по ID
func (m *Manager) TrackByID(id int) (*Track, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.find(id)
}

// find ищет дорожку по ID. Вызывать под блокировкой.
func (m *Manager) find(id int) (*Track, error) {
	for _, t := range m.tracks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrTrackNotFound, id)
}

// Edit изменяет дорожку и уведомляет об изменении.
// Параметры приводятся к допустимым диапазонам, флаги Enabled пересчитываются.
func (m *Manager) Edit(id int, fn func(t *Track)) error {
	m.mutex.Lock()
	target, err := m.find(id)
	if err != nil {
		m.mutex.Unlock()
		return err
	}
	fn(target)
	target.Normalize()
	m.recomputeEnabled()
	m.mutex.Unlock()

	m.notify()
	return nil
}

// SetSolo включает или выключает соло дорожки
func (m *Manager) SetSolo(id int, solo bool) error {
	return m.Edit(id, func(t *Track) { t.Solo = solo })
}

// ToggleSolo переключает соло дорожки
func (m *Manager) ToggleSolo(id int) error {
	return m.Edit(id, func(t *Track) { t.Solo = !t.Solo })
}

// SetMuted включает или выключает заглушение дорожки
func (m *Manager) SetMuted(id int, muted bool) error {
	return m.Edit(id, func(t *Track) { t.Muted = muted })
}

// Delete удаляет дорожку
func (m *Manager) Delete(id int) error {
	m.mutex.Lock()
	idx := -1
	for i, t := range m.tracks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mutex.Unlock()
		return fmt.Errorf("%w: %d", ErrTrackNotFound, id)
	}
	m.tracks = append(m.tracks[:idx], m.tracks[idx+1:]...)
	m.recomputeEnabled()
	m.mutex.Unlock()

	m.notify()
	return nil
}

// RecomputeEnabled пересчитывает признак Enabled всех дорожек
func (m *Manager) RecomputeEnabled() {
	m.mutex.Lock()
	m.recomputeEnabled()
	m.mutex.Unlock()

	m.notify()
}

// Reset удаляет все дорожки. Идентификаторы продолжают расти.
func (m *Manager) Reset() {
	m.mutex.Lock()
	m.tracks = nil
	m.mutex.Unlock()

	m.notify()
}

// AnySolo сообщает, есть ли дорожки в режиме соло
func (m *Manager) AnySolo() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.anySolo()
}

func (m *Manager) anySolo() bool {
	for _, t := range m.tracks {
		if t.Solo {
			return true
		}
	}
	return false
}

// recomputeEnabled: если есть соло, звучат только дорожки с соло, иначе все
func (m *Manager) recomputeEnabled() {
	solo := m.anySolo()
	for _, t := range m.tracks {
		t.Enabled = !solo || t.Solo
	}
}

func (m *Manager) notify() {
	m.mutex.RLock()
	fn := m.onChange
	m.mutex.RUnlock()
	if fn != nil {
		fn()
	}
}
