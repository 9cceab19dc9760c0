package fx

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/hazadus/go-mixdown/internal/dsp"
)

// blockSize - размер блока, которым цепочка читает свой вход
const blockSize = 512

// tailHold - сколько тишины после окончания источника считается концом хвоста
const tailHold = 2 * time.Second

// silenceLevel - порог, ниже которого выход считается тишиной
const silenceLevel = 1e-6

// Context содержит общие для всех цепочек сессии ресурсы
type Context struct {
	Format beep.Format
	Reverb *dsp.Kernel
}

// NewContext создает контекст сборки и подготавливает ядро реверберации
// из нормализованной импульсной характеристики
func NewContext(format beep.Format, impulse *dsp.Buffer) Context {
	ctx := Context{Format: format}
	if impulse.Len() > 0 {
		ctx.Reverb = dsp.NewKernel(dsp.NormalizeImpulse(impulse), dsp.DefaultPartition)
	}
	return ctx
}

// Chain - собранная цепочка эффектов одной дорожки.
// Вход подключается через Connect, выход - сама цепочка.
// Stream и Dispose должны вызываться под одной блокировкой вывода.
type Chain struct {
	input    beep.Streamer
	branches []beep.Streamer
	current  [][2]float64
	block    [][2]float64
	scratch  [][2]float64
	tail     int
	silent   int
	drained  bool
	ended    bool
	disposed bool
}

// Compile собирает цепочку по плану. Ветви с нулевым выходным усилением пропускаются.
func Compile(ctx Context, plan Plan) *Chain {
	c := &Chain{
		block:   make([][2]float64, blockSize),
		scratch: make([][2]float64, blockSize),
		tail:    ctx.Format.SampleRate.N(tailHold),
	}
	for _, branch := range [][]Stage{plan.Dry, plan.Delay, plan.Reverb} {
		if Silent(branch) {
			continue
		}
		if s, ok := c.compileBranch(ctx, branch); ok {
			c.branches = append(c.branches, s)
		}
	}
	return c
}

func (c *Chain) compileBranch(ctx Context, branch []Stage) (beep.Streamer, bool) {
	sr := ctx.Format.SampleRate
	var s beep.Streamer = &blockReader{chain: c}
	for _, st := range branch {
		switch st.Kind {
		case KindLowShelf:
			s = dsp.NewShelf(dsp.LowShelf, sr, st.Freq, st.GainDB, s)
		case KindHighShelf:
			s = dsp.NewShelf(dsp.HighShelf, sr, st.Freq, st.GainDB, s)
		case KindPan:
			s = &effects.Pan{Streamer: s, Pan: st.Value}
		case KindGain:
			s = &effects.Gain{Streamer: s, Gain: st.Value - 1}
		case KindDelay:
			s = dsp.NewDelayLine(sr, st.Time, st.Feedback, s)
		case KindConvolve:
			if ctx.Reverb == nil {
				return nil, false
			}
			s = dsp.NewConvolver(ctx.Reverb, s)
		}
	}
	return s, true
}

// Branches возвращает число собранных ветвей
func (c *Chain) Branches() int {
	return len(c.branches)
}

// Connect подключает источник ко входу цепочки
func (c *Chain) Connect(src beep.Streamer) {
	if c.disposed {
		return
	}
	c.input = src
	c.drained = false
	c.ended = false
	c.silent = 0
}

// Disconnect отключает источник. Повторный вызов ничего не делает.
func (c *Chain) Disconnect() {
	c.input = nil
}

// Dispose освобождает цепочку. После вызова Stream возвращает (0, false),
// и микшер удаляет цепочку при следующем чтении. Повторный вызов безопасен.
func (c *Chain) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.input = nil
	c.branches = nil
	c.current = nil
}

// Disposed сообщает, освобождена ли цепочка
func (c *Chain) Disposed() bool {
	return c.disposed
}

// Output возвращает выход цепочки
func (c *Chain) Output() beep.Streamer {
	return c
}

// Stream читает вход блоками и суммирует выходы всех ветвей.
// После окончания источника продолжает выдавать хвосты задержки и реверберации,
// пока выход не затихнет.
func (c *Chain) Stream(samples [][2]float64) (n int, ok bool) {
	if c.disposed || c.ended {
		return 0, false
	}
	for len(samples) > 0 {
		size := min(len(samples), blockSize)
		c.pull(c.block[:size])
		c.current = c.block[:size]

		out := samples[:size]
		clear(out)
		for _, br := range c.branches {
			tmp := c.scratch[:size]
			clear(tmp)
			m, _ := br.Stream(tmp)
			for i := range tmp[:m] {
				out[i][0] += tmp[i][0]
				out[i][1] += tmp[i][1]
			}
		}
		c.trackTail(out)
		samples = samples[size:]
		n += size
	}
	return n, true
}

// trackTail отмечает конец цепочки после продолжительной тишины на выходе
func (c *Chain) trackTail(out [][2]float64) {
	if !c.drained {
		return
	}
	for i := range out {
		if math.Abs(out[i][0]) > silenceLevel || math.Abs(out[i][1]) > silenceLevel {
			c.silent = 0
			return
		}
	}
	c.silent += len(out)
	if c.silent >= c.tail {
		c.ended = true
	}
}

// Ended сообщает, что источник закончился и хвосты эффектов затихли
func (c *Chain) Ended() bool {
	return c.ended
}

func (c *Chain) pull(block [][2]float64) {
	if c.input == nil || c.drained {
		c.drained = true
		clear(block)
		return
	}
	n, ok := c.input.Stream(block)
	clear(block[n:])
	if !ok {
		c.drained = true
	}
}

// Err возвращает ошибку источника
func (c *Chain) Err() error {
	if c.input == nil {
		return nil
	}
	return c.input.Err()
}

// blockReader отдает ветви текущий блок входа цепочки
type blockReader struct {
	chain *Chain
}

func (r *blockReader) Stream(samples [][2]float64) (int, bool) {
	return copy(samples, r.chain.current), true
}

func (r *blockReader) Err() error { return nil }
