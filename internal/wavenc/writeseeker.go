package wavenc

import (
	"errors"
	"io"
)

// WriteSeeker - io.WriteSeeker в памяти. Кодировщику WAV нужна перемотка,
// чтобы дописать размеры в заголовок после данных.
type WriteSeeker struct {
	buf []byte
	pos int
}

// Write записывает данные с текущей позиции, расширяя буфер при необходимости
func (w *WriteSeeker) Write(p []byte) (int, error) {
	end := w.pos + len(p)
	if end > len(w.buf) {
		if end > cap(w.buf) {
			grown := make([]byte, end, max(end, 2*cap(w.buf)))
			copy(grown, w.buf)
			w.buf = grown
		} else {
			w.buf = w.buf[:end]
		}
	}
	copy(w.buf[w.pos:], p)
	w.pos = end
	return len(p), nil
}

// Seek меняет позицию записи
func (w *WriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(w.pos) + offset
	case io.SeekEnd:
		abs = int64(len(w.buf)) + offset
	default:
		return 0, errors.New("неверный параметр whence")
	}
	if abs < 0 {
		return 0, errors.New("отрицательная позиция")
	}
	w.pos = int(abs)
	return abs, nil
}

// Bytes возвращает записанные данные
func (w *WriteSeeker) Bytes() []byte {
	return w.buf
}
