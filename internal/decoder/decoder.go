// Package decoder декодирует звуковые файлы (MP3, WAV) в буферы сэмплов
package decoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"

	"github.com/hazadus/go-mixdown/internal/dsp"
	"github.com/hazadus/go-mixdown/internal/streaming"
)

// ErrUnsupportedFormat возвращается для файлов неизвестного формата
var ErrUnsupportedFormat = errors.New("неподдерживаемый формат файла")

// resampleQuality - качество передискретизации beep (от 1 до 6)
const resampleQuality = 4

// Supported сообщает, поддерживается ли формат файла с таким именем
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3", ".wav":
		return true
	}
	return false
}

// Decode декодирует поток. Формат определяется по расширению имени.
func Decode(r io.Reader, name string) (*dsp.Buffer, error) {
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3":
		rc, ok := r.(io.ReadCloser)
		if !ok {
			rc = io.NopCloser(r)
		}
		streamer, format, err = mp3.Decode(rc)
		if err != nil {
			return nil, fmt.Errorf("ошибка декодирования MP3: %w", err)
		}
	case ".wav":
		streamer, format, err = wav.Decode(r)
		if err != nil {
			return nil, fmt.Errorf("ошибка декодирования WAV: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	defer streamer.Close()

	buf, err := dsp.FromStreamer(format, streamer)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// DecodeFile декодирует файл с диска
func DecodeFile(path string) (*dsp.Buffer, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer file.Close()

	return Decode(file, path)
}

// DecodeURL загружает и декодирует файл по HTTP
func DecodeURL(ctx context.Context, url string) (*dsp.Buffer, error) {
	name := streaming.FileName(url)
	if !Supported(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	reader, err := streaming.NewReader(ctx, url, streaming.DefaultBufferSize)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания потокового ридера: %w", err)
	}
	defer reader.Close()

	return Decode(reader, name)
}

// Resample приводит буфер к частоте sr. Буфер с той же частотой возвращается как есть.
func Resample(buf *dsp.Buffer, sr beep.SampleRate) (*dsp.Buffer, error) {
	if buf.SampleRate() == sr || buf.Len() == 0 {
		return buf, nil
	}
	resampled := beep.Resample(resampleQuality, buf.SampleRate(), sr, buf.Streamer(0, buf.Len()))
	format := buf.Format
	format.SampleRate = sr
	out, err := dsp.FromStreamer(format, resampled)
	if err != nil {
		return nil, fmt.Errorf("ошибка передискретизации: %w", err)
	}
	return out, nil
}
