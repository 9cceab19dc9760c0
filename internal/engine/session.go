// Package engine содержит транспорт и планировщик сессии: запуск голосов
// дорожек, петлю, метроном и мастер-шину
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/gopxl/beep"

	"github.com/hazadus/go-mixdown/internal/dsp"
	"github.com/hazadus/go-mixdown/internal/fx"
	"github.com/hazadus/go-mixdown/internal/render"
	"github.com/hazadus/go-mixdown/internal/track"
)

// Backend - устройство вывода звука
type Backend interface {
	Init(sr beep.SampleRate) error
	Play(s beep.Streamer)
	Lock()
	Unlock()
	Close() error
}

// State - состояние транспорта
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return "stopped"
}

// LoopRegion - область петли в секундах
type LoopRegion struct {
	Enabled bool
	Start   float64
	End     float64
}

// Valid сообщает, что конец петли больше начала
func (l LoopRegion) Valid() bool {
	return l.End > l.Start
}

// TickResult - результат одного шага транспорта
type TickResult struct {
	State    State
	Playhead float64
	Beat     int
	Clicked  bool
	Wrapped  bool
}

// Option настраивает Session
type Option func(*Session)

// WithLogger задает логгер
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithClock задает часы вместо счетчика кадров мастер-шины
func WithClock(clock Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// WithManager задает менеджер дорожек
func WithManager(m *track.Manager) Option {
	return func(s *Session) { s.tracks = m }
}

// Session - аудиосессия: дорожки, транспорт и вывод.
// Методы безопасны для вызова из разных горутин.
type Session struct {
	mutex   sync.Mutex
	cfg     Config
	tracks  *track.Manager
	backend Backend
	clock   Clock
	logger  *slog.Logger

	// busClock - часами служит мастер-шина, ее нужно сменить при повторной инициализации
	busClock bool

	bus           *Bus
	impulse       *dsp.Buffer
	fxContext     fx.Context
	isInitialized bool

	tempo      int
	masterGain float64
	state      State
	startTime  float64
	playhead   float64
	loop       LoopRegion
	click      clickState
	voices     map[int]*voice
	generation uint64
	markers    []float64
	audition   *beep.Ctrl
}

// NewSession создает сессию. Вывод не инициализируется до вызова Init.
func NewSession(cfg Config, backend Backend, opts ...Option) *Session {
	cfg = cfg.withDefaults()
	s := &Session{
		cfg:        cfg,
		backend:    backend,
		tempo:      cfg.Tempo,
		masterGain: cfg.MasterGain,
		loop:       cfg.Loop,
		click:      clickState{enabled: cfg.Click, lastIdx: -1},
		voices:     map[int]*voice{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracks == nil {
		s.tracks = track.NewManager()
	}
	s.impulse = dsp.Impulse(cfg.SampleRate, cfg.ReverbSeconds, cfg.ReverbSeed)
	s.tracks.OnChange(s.RebuildIfPlaying)
	return s
}

// Tracks возвращает менеджер дорожек сессии
func (s *Session) Tracks() *track.Manager {
	return s.tracks
}

// SampleRate возвращает частоту дискретизации сессии
func (s *Session) SampleRate() beep.SampleRate {
	return s.cfg.SampleRate
}

// Init инициализирует вывод и мастер-шину. Повторный вызов ничего не делает.
func (s *Session) Init() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isInitialized {
		return nil
	}
	if err := s.backend.Init(s.cfg.SampleRate); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.bus = newBus(s.cfg.SampleRate, s.masterGain)
	if s.clock == nil || s.busClock {
		s.clock = s.bus
		s.busClock = true
	}
	s.fxContext = fx.NewContext(s.format(), s.impulse)
	s.backend.Play(s.bus)
	s.isInitialized = true

	s.logger.Info("аудио инициализировано", "sample_rate", int(s.cfg.SampleRate))
	return nil
}

// Initialized сообщает, инициализирован ли вывод
func (s *Session) Initialized() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.isInitialized
}

// Close останавливает воспроизведение и закрывает вывод
func (s *Session) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isInitialized {
		return nil
	}
	s.stopVoices()
	s.stopAudition()
	s.state = Stopped
	s.isInitialized = false
	if err := s.backend.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия вывода: %w", err)
	}
	return nil
}

func (s *Session) format() beep.Format {
	return beep.Format{SampleRate: s.cfg.SampleRate, NumChannels: 2, Precision: 2}
}

// Play начинает воспроизведение с текущей позиции.
// Без инициализированного вывода и при уже идущем воспроизведении ничего не делает.
func (s *Session) Play() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isInitialized {
		s.logger.Warn("воспроизведение недоступно: вывод не инициализирован")
		return
	}
	if s.state == Playing {
		return
	}
	s.startTime = s.clock.Now() - s.playhead
	s.state = Playing
	s.startVoices()
}

// Pause останавливает голоса, сохраняя позицию
func (s *Session) Pause() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state == Playing {
		s.state = Paused
	}
	s.stopVoices()
}

// Stop останавливает воспроизведение и возвращает позицию к началу петли или к нулю
func (s *Session) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.stopVoices()
	s.state = Stopped
	s.playhead = 0
	if s.loop.Enabled {
		s.playhead = s.loop.Start
	}
	s.resetClickEdge()
}

// TogglePlay переключает воспроизведение и паузу
func (s *Session) TogglePlay() {
	if s.State() == Playing {
		s.Pause()
		return
	}
	s.Play()
}

// Seek переносит позицию. Во время воспроизведения голоса перезапускаются.
func (s *Session) Seek(sec float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.seek(sec)
}

func (s *Session) seek(sec float64) {
	s.playhead = math.Max(0, sec)
	if s.isInitialized {
		s.startTime = s.clock.Now() - s.playhead
	}
	s.resetClickEdge()
	if s.state == Playing {
		s.startVoices()
	}
}

// Tick продвигает транспорт: обновляет позицию, обрабатывает петлю и метроном.
// Вызывается периодически, например с частотой кадров интерфейса.
func (s *Session) Tick() TickResult {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	res := TickResult{State: s.state}
	if !s.isInitialized || s.state != Playing {
		res.Playhead = s.playhead
		res.Beat = beatIndex(s.playhead, s.tempo)
		return res
	}

	now := s.clock.Now()
	s.playhead = now - s.startTime
	if s.loop.Enabled && s.loop.Valid() && s.playhead >= s.loop.End {
		s.playhead = s.loop.Start
		s.startTime = now - s.playhead
		s.resetClickEdge()
		s.startVoices()
		res.Wrapped = true
	}

	res.Beat = beatIndex(s.playhead, s.tempo)
	if s.click.enabled && res.Beat != s.click.lastIdx {
		s.emitClick()
		s.click.lastIdx = res.Beat
		res.Clicked = true
	}

	res.Playhead = s.playhead
	return res
}

// emitClick добавляет щелчок метронома в мастер-шину
func (s *Session) emitClick() {
	click, err := newClick(s.cfg.SampleRate)
	if err != nil {
		s.logger.Error("не удалось создать щелчок метронома", "error", err)
		return
	}
	s.backend.Lock()
	s.bus.add(click)
	s.backend.Unlock()
}

// resetClickEdge настраивает метроном так, чтобы сработала только граница доли
// в текущей позиции или после нее
func (s *Session) resetClickEdge() {
	s.click.lastIdx = edgeBefore(s.playhead, s.tempo)
}

// RebuildIfPlaying перезапускает голоса, если идет воспроизведение.
// Вызывается при изменении дорожек.
func (s *Session) RebuildIfPlaying() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isInitialized && s.state == Playing {
		s.startVoices()
	}
}

// State возвращает состояние транспорта
func (s *Session) State() State {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state
}

// Playhead возвращает текущую позицию в секундах
func (s *Session) Playhead() float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.playhead
}

// Tempo возвращает темп в ударах в минуту
func (s *Session) Tempo() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.tempo
}

// SetTempo задает темп. Длительность инструментов меняется,
// поэтому во время воспроизведения голоса перезапускаются.
func (s *Session) SetTempo(bpm int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	bpm = clampTempo(bpm)
	if bpm == s.tempo {
		return
	}
	s.tempo = bpm
	s.resetClickEdge()
	if s.isInitialized && s.state == Playing {
		s.startVoices()
	}
}

// Loop возвращает область петли
func (s *Session) Loop() LoopRegion {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.loop
}

// SetLoop задает область петли
func (s *Session) SetLoop(loop LoopRegion) error {
	if loop.Start < 0 || !loop.Valid() {
		return fmt.Errorf("%w: %.3f..%.3f", ErrInvalidLoop, loop.Start, loop.End)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.loop = loop
	if s.isInitialized && s.state == Playing {
		s.startVoices()
	}
	return nil
}

// ToggleLoop включает или выключает петлю
func (s *Session) ToggleLoop() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.loop.Enabled = !s.loop.Enabled
	if s.isInitialized && s.state == Playing {
		s.startVoices()
	}
	return s.loop.Enabled
}

// ClickEnabled сообщает, включен ли метроном
func (s *Session) ClickEnabled() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.click.enabled
}

// SetClick включает или выключает метроном
func (s *Session) SetClick(enabled bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.setClick(enabled)
}

// ToggleClick переключает метроном
func (s *Session) ToggleClick() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.setClick(!s.click.enabled)
	return s.click.enabled
}

// setClick включает метроном так, чтобы первой сработала следующая граница доли
func (s *Session) setClick(enabled bool) {
	if enabled && !s.click.enabled {
		s.resetClickEdge()
	}
	s.click.enabled = enabled
}

// MasterGain возвращает усиление мастер-шины
func (s *Session) MasterGain() float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.masterGain
}

// SetMasterGain задает усиление мастер-шины
func (s *Session) SetMasterGain(g float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.masterGain = math.Max(0, math.Min(MaxMasterGain, g))
	if s.isInitialized {
		s.backend.Lock()
		s.bus.setGain(s.masterGain)
		s.backend.Unlock()
	}
}

// ActiveVoices возвращает описание звучащих голосов
func (s *Session) ActiveVoices() []VoiceInfo {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make([]VoiceInfo, 0, len(s.voices))
	for _, v := range s.voices {
		out = append(out, VoiceInfo{
			TrackID:    v.trackID,
			Generation: v.generation,
			Offset:     v.offset,
			Bounded:    v.bounded,
		})
	}
	return out
}

// Generation возвращает номер текущего поколения голосов
func (s *Session) Generation() uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.generation
}

// Analyser возвращает отвод мастер-шины или nil до инициализации
func (s *Session) Analyser() *dsp.Tap {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.bus == nil {
		return nil
	}
	return s.bus.tap
}

// Spectrum возвращает спектр мастер-шины для анализатора
func (s *Session) Spectrum(n int) []float64 {
	s.mutex.Lock()
	bus := s.bus
	s.mutex.Unlock()
	if bus == nil {
		return nil
	}
	return bus.tap.Spectrum(n)
}

// Snapshot возвращает снимок сессии для офлайн-рендеринга
func (s *Session) Snapshot() render.Snapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return render.Snapshot{
		Tracks:     s.tracks.Snapshot(),
		Tempo:      s.tempo,
		MasterGain: s.masterGain,
		SampleRate: s.cfg.SampleRate,
		Impulse:    s.impulse,
	}
}
