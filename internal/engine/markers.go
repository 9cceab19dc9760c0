package engine

import "fmt"

// AddMarker запоминает текущую позицию и возвращает ее
func (s *Session) AddMarker() float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.markers = append(s.markers, s.playhead)
	return s.playhead
}

// Markers возвращает позиции маркеров в порядке добавления
func (s *Session) Markers() []float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make([]float64, len(s.markers))
	copy(out, s.markers)
	return out
}

// JumpToMarker переходит к маркеру с номером i (с нуля)
func (s *Session) JumpToMarker(i int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if i < 0 || i >= len(s.markers) {
		return fmt.Errorf("%w: %d", ErrMarkerNotFound, i+1)
	}
	s.seek(s.markers[i])
	return nil
}
