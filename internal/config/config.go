// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/gopxl/beep"
	"gopkg.in/yaml.v3"

	"github.com/hazadus/go-mixdown/internal/engine"
)

// DefaultPath - путь к файлу конфигурации по умолчанию
const DefaultPath = "~/.mixdown"

// Config структура для хранения конфигурации приложения
type Config struct {
	SampleRate     int     `yaml:"sample_rate"`
	Tempo          int     `yaml:"tempo"`
	MasterGain     float64 `yaml:"master_gain"`
	NoClick        bool    `yaml:"no_click"`
	LoopEnabled    bool    `yaml:"loop_enabled"`
	LoopStart      float64 `yaml:"loop_start"`
	LoopEnd        float64 `yaml:"loop_end"`
	ScheduleLeadMs int     `yaml:"schedule_lead_ms"`
	ReverbSeconds  float64 `yaml:"reverb_seconds"`
	ReverbSeed     int64   `yaml:"reverb_seed"`
	ExportDir      string  `yaml:"export_dir"`
	LibraryPath    string  `yaml:"library_path"`
	Debug          bool    `yaml:"debug"`

	AwsBucketName string `yaml:"aws_bucket_name"`
	AwsAccessKey  string `yaml:"aws_access_key"`
	AwsSecretKey  string `yaml:"aws_secret_key"`
	AwsRegion     string `yaml:"aws_region"`
	AwsEndpoint   string `yaml:"aws_endpoint"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	def := engine.DefaultConfig()
	return &Config{
		SampleRate:     int(def.SampleRate),
		Tempo:          def.Tempo,
		MasterGain:     def.MasterGain,
		LoopStart:      def.Loop.Start,
		LoopEnd:        def.Loop.End,
		ScheduleLeadMs: int(def.ScheduleLead / time.Millisecond),
		ReverbSeconds:  def.ReverbSeconds,
		ReverbSeed:     def.ReverbSeed,
		ExportDir:      "~/Music",
		LibraryPath:    "~/.mixdown-library",
	}
}

// LoadConfig загружает конфигурацию приложения из указанного файла.
// Если файла нет, возвращает конфигурацию по умолчанию.
func LoadConfig(filePath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := strings.Replace(filePath, "~", home, 1)

	config := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, err
		}
	}

	// Устанавливаем значения по умолчанию, если они не заданы
	def := Default()
	if config.SampleRate <= 0 {
		config.SampleRate = def.SampleRate
	}
	if config.Tempo <= 0 {
		config.Tempo = def.Tempo
	}
	if config.LoopEnd <= config.LoopStart {
		config.LoopStart, config.LoopEnd = def.LoopStart, def.LoopEnd
	}
	if config.ReverbSeconds <= 0 {
		config.ReverbSeconds = def.ReverbSeconds
	}
	if config.ExportDir == "" {
		config.ExportDir = def.ExportDir
	}
	if config.LibraryPath == "" {
		config.LibraryPath = def.LibraryPath
	}

	// Раскрываем тильду в пути экспорта
	config.ExportDir = strings.Replace(config.ExportDir, "~", home, 1)

	return config, nil
}

// UploadEnabled сообщает, настроена ли выгрузка сведения в S3
func (c *Config) UploadEnabled() bool {
	return c.AwsBucketName != "" && c.AwsRegion != ""
}

// Engine возвращает настройки движка
func (c *Config) Engine() engine.Config {
	return engine.Config{
		SampleRate: beep.SampleRate(c.SampleRate),
		Tempo:      c.Tempo,
		MasterGain: c.MasterGain,
		Click:      !c.NoClick,
		Loop: engine.LoopRegion{
			Enabled: c.LoopEnabled,
			Start:   c.LoopStart,
			End:     c.LoopEnd,
		},
		ScheduleLead:  time.Duration(c.ScheduleLeadMs) * time.Millisecond,
		ReverbSeconds: c.ReverbSeconds,
		ReverbSeed:    c.ReverbSeed,
	}
}
