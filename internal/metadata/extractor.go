// Package metadata извлекает теги звуковых файлов и подбирает по ним имена дорожек
package metadata

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"github.com/hazadus/go-mixdown/internal/decoder"
)

// UnknownArtist подставляется, когда исполнителя определить не удалось
const UnknownArtist = "Unknown Artist"

// TrackMetadata хранит теги файла
type TrackMetadata struct {
	Artist string
	Title  string
	Album  string
}

// DisplayName возвращает имя для дорожки: "Исполнитель - Название" или только название
func (m TrackMetadata) DisplayName() string {
	switch {
	case m.Title == "":
		return m.Artist
	case m.Artist == "" || m.Artist == UnknownArtist:
		return m.Title
	}
	return m.Artist + " - " + m.Title
}

// FileInfo описывает звуковой файл
type FileInfo struct {
	Metadata   TrackMetadata
	Size       int64
	Duration   time.Duration
	SampleRate int
	Channels   int
}

// Extractor извлекает метаданные из звуковых файлов
type Extractor struct{}

// NewExtractor создает новый экстрактор метаданных
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFromReader читает теги из потока. Без тегов имя разбирается из source.
func (e *Extractor) ExtractFromReader(reader io.ReadSeeker, source string) TrackMetadata {
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return e.getDefaultMetadata(source)
	}

	m, err := tag.ReadFrom(reader)
	if err != nil || (m.Artist() == "" && m.Title() == "") {
		return e.getDefaultMetadata(source)
	}

	return TrackMetadata{
		Artist: m.Artist(),
		Title:  m.Title(),
		Album:  m.Album(),
	}
}

// ExtractFromFile читает теги из файла
func (e *Extractor) ExtractFromFile(filePath string) TrackMetadata {
	file, err := os.Open(filePath)
	if err != nil {
		return e.getDefaultMetadata(filePath)
	}
	defer file.Close()

	return e.ExtractFromReader(file, filePath)
}

// TrackName возвращает имя дорожки для файла
func (e *Extractor) TrackName(filePath string) string {
	return e.ExtractFromFile(filePath).DisplayName()
}

// GetFileInfo возвращает теги, размер и параметры звука файла
func (e *Extractor) GetFileInfo(filePath string) (*FileInfo, error) {
	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения информации о файле: %w", err)
	}

	buf, err := decoder.DecodeFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения длительности: %w", err)
	}

	return &FileInfo{
		Metadata:   e.ExtractFromFile(filePath),
		Size:       stat.Size(),
		Duration:   buf.SampleRate().D(buf.Len()),
		SampleRate: int(buf.SampleRate()),
		Channels:   buf.Channels(),
	}, nil
}

// getDefaultMetadata разбирает имя файла в формате "Artist - Title"
func (e *Extractor) getDefaultMetadata(source string) TrackMetadata {
	fileName := filepath.Base(source)
	nameWithoutExt := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	parts := strings.Split(nameWithoutExt, " - ")
	if len(parts) >= 2 {
		return TrackMetadata{
			Artist: strings.TrimSpace(parts[0]),
			Title:  strings.TrimSpace(strings.Join(parts[1:], " - ")),
		}
	}

	return TrackMetadata{
		Artist: UnknownArtist,
		Title:  nameWithoutExt,
	}
}
