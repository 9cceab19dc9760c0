// Package wavenc кодирует буферы сэмплов в 16-битный PCM WAV
package wavenc

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/hazadus/go-mixdown/internal/dsp"
)

// BitDepth - разрядность выходного файла
const BitDepth = 16

// HeaderSize - размер заголовка WAV в байтах
const HeaderSize = 44

// ErrEmptyBuffer возвращается при попытке закодировать пустой буфер
var ErrEmptyBuffer = errors.New("пустой буфер")

// Quantize переводит сэмпл в 16-битное целое: значение ограничивается [-1, 1],
// отрицательные умножаются на 32768, положительные на 32767, дробная часть отбрасывается
func Quantize(s float64) int {
	s = max(-1, min(1, s))
	if s < 0 {
		return int(s * 32768)
	}
	return int(s * 32767)
}

// Write записывает буфер в формате WAV. Каналы чередуются по кадрам.
func Write(w io.WriteSeeker, buf *dsp.Buffer) error {
	if buf.Len() == 0 {
		return ErrEmptyBuffer
	}

	channels := buf.Channels()
	sr := int(buf.SampleRate())

	data := make([]int, 0, buf.Len()*channels)
	for _, frame := range buf.Samples {
		for ch := 0; ch < channels; ch++ {
			data = append(data, Quantize(frame[ch]))
		}
	}

	enc := wav.NewEncoder(w, sr, BitDepth, channels, 1)
	ib := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sr},
		Data:           data,
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("ошибка записи сэмплов: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("ошибка завершения файла: %w", err)
	}
	return nil
}

// Encode кодирует буфер в WAV в памяти
func Encode(buf *dsp.Buffer) ([]byte, error) {
	ws := &WriteSeeker{}
	if err := Write(ws, buf); err != nil {
		return nil, err
	}
	return ws.Bytes(), nil
}

// Size возвращает размер WAV-файла для буфера в байтах
func Size(buf *dsp.Buffer) int {
	return HeaderSize + buf.Len()*buf.Channels()*BitDepth/8
}
