package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gopxl/beep"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hazadus/go-mixdown/internal/decoder"
	"github.com/hazadus/go-mixdown/internal/dsp"
	"github.com/hazadus/go-mixdown/internal/engine"
	"github.com/hazadus/go-mixdown/internal/metadata"
	"github.com/hazadus/go-mixdown/internal/streaming"
	"github.com/hazadus/go-mixdown/internal/track"
)

// loadWorkers - сколько файлов декодируется одновременно
const loadWorkers = 4

// sessionFlags - общие флаги, описывающие содержимое сессии
type sessionFlags struct {
	audio       []string
	urls        []string
	instruments []string
	tempo       int
	loop        string
	noClick     bool
	master      float64
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringArrayVarP(&f.audio, "audio", "a", nil, "audio file to add as a track (mp3, wav), repeatable")
	flags.StringArrayVar(&f.urls, "url", nil, "audio file URL to add as a track, repeatable")
	flags.StringArrayVarP(&f.instruments, "instrument", "i", nil, "instrument track as wave:p0,p1,..,p7, repeatable")
	flags.IntVarP(&f.tempo, "tempo", "t", 0, "tempo in BPM (default from config)")
	flags.StringVar(&f.loop, "loop", "", "loop region in seconds as start:end")
	flags.BoolVar(&f.noClick, "no-click", false, "disable the metronome click")
	flags.Float64Var(&f.master, "master", -1, "master gain 0..2 (default from config)")
}

// engineConfig применяет флаги сессии поверх конфигурации
func (app *Application) engineConfig() (engine.Config, error) {
	cfg := app.Config.Engine()
	f := app.session

	if f.tempo > 0 {
		cfg.Tempo = f.tempo
	}
	if f.master >= 0 {
		cfg.MasterGain = f.master
	}
	if f.noClick {
		cfg.Click = false
	}
	if f.loop != "" {
		loop, err := parseLoop(f.loop)
		if err != nil {
			return cfg, err
		}
		cfg.Loop = loop
	}
	return cfg, nil
}

// newSession создает сессию с заданным выводом и загружает в нее дорожки
func (app *Application) newSession(ctx context.Context, backend engine.Backend) (*engine.Session, error) {
	cfg, err := app.engineConfig()
	if err != nil {
		return nil, err
	}

	session := engine.NewSession(cfg, backend, engine.WithLogger(app.Logger))
	if err := app.loadTracks(ctx, session.Tracks(), session.SampleRate()); err != nil {
		return nil, err
	}
	return session, nil
}

// loadTracks добавляет дорожки из флагов. Звуковые дорожки добавляются сразу,
// в порядке флагов, а декодируются параллельно и приводятся к частоте сессии.
func (app *Application) loadTracks(ctx context.Context, manager *track.Manager, sr beep.SampleRate) error {
	instruments := make([]*track.Instrument, 0, len(app.session.instruments))
	for _, desc := range app.session.instruments {
		in, err := parseInstrument(desc)
		if err != nil {
			return err
		}
		instruments = append(instruments, in)
	}

	extractor := metadata.NewExtractor()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadWorkers)

	load := func(name, source string, decode func() (*dsp.Buffer, error)) {
		id := manager.AddPendingTrack(name).ID
		g.Go(func() error {
			buf, err := decode()
			if err != nil {
				return fmt.Errorf("ошибка загрузки %s: %w", source, err)
			}
			if buf, err = decoder.Resample(buf, sr); err != nil {
				return fmt.Errorf("ошибка загрузки %s: %w", source, err)
			}
			app.Logger.Debug("дорожка загружена", "track", id, "source", source, "frames", buf.Len())
			return manager.SetBuffer(id, buf)
		})
	}

	for _, path := range app.session.audio {
		load(extractor.TrackName(path), path, func() (*dsp.Buffer, error) {
			return decoder.DecodeFile(path)
		})
	}
	for _, url := range app.session.urls {
		load(streaming.FileName(url), url, func() (*dsp.Buffer, error) {
			return decoder.DecodeURL(gctx, url)
		})
	}

	for _, in := range instruments {
		manager.AddInstrument("", in)
	}

	return g.Wait()
}

// parseInstrument разбирает описание инструмента "wave:p0,p1,..,p7".
// Форму волны и паттерн можно опустить: "square", ":0,7,0,7".
func parseInstrument(s string) (*track.Instrument, error) {
	in := track.NewInstrument()
	waveStr, patternStr, hasPattern := strings.Cut(s, ":")

	if strings.TrimSpace(waveStr) != "" {
		wave, err := dsp.ParseWave(waveStr)
		if err != nil {
			return nil, fmt.Errorf("неверный инструмент %q: %w", s, err)
		}
		in.Wave = wave
	}
	if hasPattern && strings.TrimSpace(patternStr) != "" {
		pattern, err := track.ParsePattern(patternStr)
		if err != nil {
			return nil, fmt.Errorf("неверный инструмент %q: %w", s, err)
		}
		in.Pattern = pattern
	}
	return in, nil
}

// parseLoop разбирает петлю "start:end" в секундах
func parseLoop(s string) (engine.LoopRegion, error) {
	startStr, endStr, ok := strings.Cut(s, ":")
	if !ok {
		return engine.LoopRegion{}, fmt.Errorf("%w: ожидалось start:end, получено %q", engine.ErrInvalidLoop, s)
	}
	start, err := strconv.ParseFloat(strings.TrimSpace(startStr), 64)
	if err != nil {
		return engine.LoopRegion{}, fmt.Errorf("%w: %q", engine.ErrInvalidLoop, s)
	}
	end, err := strconv.ParseFloat(strings.TrimSpace(endStr), 64)
	if err != nil {
		return engine.LoopRegion{}, fmt.Errorf("%w: %q", engine.ErrInvalidLoop, s)
	}

	loop := engine.LoopRegion{Enabled: true, Start: start, End: end}
	if !loop.Valid() {
		return engine.LoopRegion{}, fmt.Errorf("%w: %q", engine.ErrInvalidLoop, s)
	}
	return loop, nil
}
