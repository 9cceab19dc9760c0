package metadata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/hazadus/go-mixdown/internal/dsp"
)

func TestExtractFromNoMetadataFile(t *testing.T) {
	// Создаем файл с именем в формате "Artist - Title"
	testFilePath := filepath.Join(t.TempDir(), "Artist - Title.mp3")
	if err := os.WriteFile(testFilePath, []byte("fake content"), 0644); err != nil {
		t.Fatalf("Ошибка создания тестового файла: %v", err)
	}

	extractor := NewExtractor()
	metadata := extractor.ExtractFromFile(testFilePath)

	// Проверяем, что метаданные извлечены из имени файла
	if metadata.Artist != "Artist" {
		t.Errorf("Ожидался Artist: Artist, получено: %s", metadata.Artist)
	}
	if metadata.Title != "Title" {
		t.Errorf("Ожидался Title: Title, получено: %s", metadata.Title)
	}
}

func TestExtractFromCorruptedFile(t *testing.T) {
	testFilePath := filepath.Join(t.TempDir(), "Unknown - Track.mp3")
	corruptedContent := []byte{0x00, 0x01, 0x02, 0x03, 0xFF, 0xFE, 0xFD}
	if err := os.WriteFile(testFilePath, corruptedContent, 0644); err != nil {
		t.Fatalf("Ошибка создания тестового файла: %v", err)
	}

	metadata := NewExtractor().ExtractFromFile(testFilePath)

	if metadata.Artist != "Unknown" || metadata.Title != "Track" {
		t.Errorf("Ожидалось Unknown - Track, получено: %s - %s", metadata.Artist, metadata.Title)
	}
}

func TestTrackName(t *testing.T) {
	extractor := NewExtractor()

	tests := []struct {
		source   string
		expected string
	}{
		{"/path/to/Artist - Title.mp3", "Artist - Title"},
		{"/path/to/SimpleTrack.wav", "SimpleTrack"},
		{"/path/to/Artist - Album - Title.mp3", "Artist - Album - Title"},
	}

	for _, test := range tests {
		if result := extractor.TrackName(test.source); result != test.expected {
			t.Errorf("TrackName(%q) = %q; expected %q", test.source, result, test.expected)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		metadata TrackMetadata
		expected string
	}{
		{TrackMetadata{Artist: "A", Title: "B"}, "A - B"},
		{TrackMetadata{Artist: UnknownArtist, Title: "B"}, "B"},
		{TrackMetadata{Title: "B"}, "B"},
		{TrackMetadata{Artist: "A"}, "A"},
	}

	for _, test := range tests {
		if result := test.metadata.DisplayName(); result != test.expected {
			t.Errorf("DisplayName(%+v) = %q; expected %q", test.metadata, result, test.expected)
		}
	}
}

func TestGetFileInfo(t *testing.T) {
	testFilePath := filepath.Join(t.TempDir(), "Band - Take.wav")
	format := beep.Format{SampleRate: 8000, NumChannels: 2, Precision: 2}
	src := dsp.NewBuffer(format, 4000)

	file, err := os.Create(testFilePath)
	if err != nil {
		t.Fatalf("Ошибка создания тестового файла: %v", err)
	}
	if err := wav.Encode(file, src.Streamer(0, src.Len()), format); err != nil {
		t.Fatalf("Ошибка записи тестового файла: %v", err)
	}
	file.Close()

	info, err := NewExtractor().GetFileInfo(testFilePath)
	if err != nil {
		t.Fatalf("Ошибка получения информации: %v", err)
	}
	if info.Duration.Seconds() != 0.5 {
		t.Errorf("Ожидалась длительность 0.5 с, получено %v", info.Duration)
	}
	if info.SampleRate != 8000 || info.Channels != 2 {
		t.Errorf("Неверный формат: %d Гц, %d каналов", info.SampleRate, info.Channels)
	}
	if info.Size != 44+4000*4 {
		t.Errorf("Неверный размер файла: %d", info.Size)
	}
	if info.Metadata.DisplayName() != "Band - Take" {
		t.Errorf("Неверное имя: %s", info.Metadata.DisplayName())
	}
}

func TestGetFileInfoInvalidAudio(t *testing.T) {
	testFilePath := filepath.Join(t.TempDir(), "test.mp3")
	if err := os.WriteFile(testFilePath, []byte("test content for file info"), 0644); err != nil {
		t.Fatalf("Ошибка создания тестового файла: %v", err)
	}

	fileInfo, err := NewExtractor().GetFileInfo(testFilePath)
	if err == nil {
		t.Fatal("Ожидалась ошибка для некорректного MP3 файла")
	}
	if fileInfo != nil {
		t.Error("fileInfo должен быть nil при ошибке")
	}
	if !strings.Contains(err.Error(), "ошибка получения длительности") {
		t.Errorf("Неожиданное сообщение об ошибке: %v", err)
	}
}

func TestGetFileInfoNonExistentFile(t *testing.T) {
	_, err := NewExtractor().GetFileInfo("/non/existent/file.mp3")
	if err == nil {
		t.Fatal("Ожидалась ошибка для несуществующего файла")
	}
	if !strings.Contains(err.Error(), "ошибка получения информации о файле") {
		t.Errorf("Неожиданное сообщение об ошибке: %v", err)
	}
}
