// Package library хранит историю экспортированных сведений в YAML-файле
package library

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNotFound возвращается, если сведения с таким ID нет
var ErrNotFound = errors.New("сведение не найдено")

// Mixdown - запись об экспортированном сведении
type Mixdown struct {
	ID        int       `yaml:"id"`
	Name      string    `yaml:"name"`
	Path      string    `yaml:"path"`
	URL       string    `yaml:"url,omitempty"` // URL файла в хранилище S3
	Size      int64     `yaml:"size"`          // Размер файла в байтах
	Length    float64   `yaml:"length"`        // Длительность в секундах
	Tempo     int       `yaml:"tempo"`
	Tracks    int       `yaml:"tracks"`
	CreatedAt time.Time `yaml:"created_at"`
}

// Library - список экспортированных сведений
type Library struct {
	Mixdowns []Mixdown `yaml:"mixdowns"`
}

// New создает пустую библиотеку
func New() *Library {
	return &Library{
		Mixdowns: make([]Mixdown, 0),
	}
}

func expandHome(filePath string) (string, error) {
	if !strings.HasPrefix(filePath, "~") {
		return filePath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return strings.Replace(filePath, "~", home, 1), nil
}

// Load загружает библиотеку из файла. Отсутствующий или пустой файл дает пустую библиотеку.
func Load(filePath string) (*Library, error) {
	path, err := expandHome(filePath)
	if err != nil {
		return nil, err
	}

	lib := New()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lib, nil
		}
		return nil, fmt.Errorf("ошибка чтения библиотеки: %w", err)
	}
	if len(data) == 0 {
		return lib, nil
	}
	if err := yaml.Unmarshal(data, lib); err != nil {
		return nil, fmt.Errorf("ошибка разбора библиотеки: %w", err)
	}
	return lib, nil
}

// Save сохраняет библиотеку в файл
func (l *Library) Save(filePath string) error {
	path, err := expandHome(filePath)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("ошибка сериализации библиотеки: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("ошибка записи библиотеки: %w", err)
	}
	return nil
}

// Add добавляет сведение и присваивает ему следующий ID
func (l *Library) Add(m Mixdown) Mixdown {
	maxID := 0
	for _, existing := range l.Mixdowns {
		maxID = max(maxID, existing.ID)
	}
	m.ID = maxID + 1
	l.Mixdowns = append(l.Mixdowns, m)
	return m
}

// Record добавляет сведение или обновляет запись с тем же путем.
// Повторный экспорт с перезаписью не плодит дубликаты.
func (l *Library) Record(m Mixdown) Mixdown {
	for i := range l.Mixdowns {
		if l.Mixdowns[i].Path == m.Path {
			m.ID = l.Mixdowns[i].ID
			l.Mixdowns[i] = m
			return m
		}
	}
	return l.Add(m)
}

// ByID возвращает сведение по ID
func (l *Library) ByID(id int) (*Mixdown, error) {
	for i := range l.Mixdowns {
		if l.Mixdowns[i].ID == id {
			return &l.Mixdowns[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
}

// Delete удаляет сведение по ID
func (l *Library) Delete(id int) error {
	for i := range l.Mixdowns {
		if l.Mixdowns[i].ID == id {
			l.Mixdowns = append(l.Mixdowns[:i], l.Mixdowns[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrNotFound, id)
}
