package dsp

import (
	"github.com/gopxl/beep"
	"github.com/mjibson/go-dsp/fft"
)

// DefaultPartition - размер раздела свертки в кадрах
const DefaultPartition = 1024

// Kernel хранит спектры разделов импульсной характеристики.
// Неизменяем после создания и может использоваться несколькими свертками.
type Kernel struct {
	block int
	parts [2][][]complex128
}

// NewKernel разбивает импульсную характеристику на разделы по block кадров
func NewKernel(ir *Buffer, block int) *Kernel {
	if block <= 0 {
		block = DefaultPartition
	}
	k := &Kernel{block: block}
	count := (ir.Len() + block - 1) / block
	for ch := 0; ch < 2; ch++ {
		k.parts[ch] = make([][]complex128, count)
		for p := 0; p < count; p++ {
			seg := make([]float64, 2*block)
			for j := 0; j < block; j++ {
				idx := p*block + j
				if idx >= ir.Len() {
					break
				}
				seg[j] = ir.Samples[idx][ch]
			}
			k.parts[ch][p] = fft.FFTReal(seg)
		}
	}
	return k
}

// Partitions возвращает число разделов
func (k *Kernel) Partitions() int {
	return len(k.parts[0])
}

// Latency возвращает задержку выхода свертки в кадрах
func (k *Kernel) Latency() int {
	return k.block
}

// Convolver выполняет равномерно разбитую свертку (overlap-save) в частотной области.
// Выход задержан на один раздел.
type Convolver struct {
	Streamer beep.Streamer

	k      *Kernel
	window [2][]float64
	fdl    [2][][]complex128
	acc    []complex128
	out    [2][]float64
	head   int
	fill   int
}

// NewConvolver создает свертку входного стримера с ядром k
func NewConvolver(k *Kernel, s beep.Streamer) *Convolver {
	c := &Convolver{
		Streamer: s,
		k:        k,
		acc:      make([]complex128, 2*k.block),
	}
	for ch := 0; ch < 2; ch++ {
		c.window[ch] = make([]float64, 2*k.block)
		c.fdl[ch] = make([][]complex128, k.Partitions())
		c.out[ch] = make([]float64, k.block)
	}
	return c
}

// Stream заменяет входные сэмплы результатом свертки
func (c *Convolver) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = c.Streamer.Stream(samples)
	if c.k.Partitions() == 0 {
		clear(samples[:n])
		return n, ok
	}
	b := c.k.block
	for i := range samples[:n] {
		for ch := 0; ch < 2; ch++ {
			c.window[ch][b+c.fill] = samples[i][ch]
			samples[i][ch] = c.out[ch][c.fill]
		}
		c.fill++
		if c.fill == b {
			c.process()
			c.fill = 0
		}
	}
	return n, ok
}

func (c *Convolver) process() {
	b := c.k.block
	count := c.k.Partitions()
	c.head = (c.head + 1) % count
	for ch := 0; ch < 2; ch++ {
		c.fdl[ch][c.head] = fft.FFTReal(c.window[ch])
		clear(c.acc)
		for p := 0; p < count; p++ {
			x := c.fdl[ch][(c.head-p+count)%count]
			if x == nil {
				continue
			}
			h := c.k.parts[ch][p]
			for j := range c.acc {
				c.acc[j] += x[j] * h[j]
			}
		}
		y := fft.IFFT(c.acc)
		for j := 0; j < b; j++ {
			c.out[ch][j] = real(y[b+j])
		}
		copy(c.window[ch][:b], c.window[ch][b:])
	}
}

// Err возвращает ошибку вложенного стримера
func (c *Convolver) Err() error {
	return c.Streamer.Err()
}
