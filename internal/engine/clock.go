package engine

import (
	"sync"
	"time"
)

// Clock - часы движка в секундах. Должны монотонно расти.
type Clock interface {
	Now() float64
}

// ManualClock - часы, которые сдвигаются только вручную
type ManualClock struct {
	mutex sync.Mutex
	now   float64
}

// Now возвращает текущее время
func (c *ManualClock) Now() float64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

// Advance сдвигает часы на d
func (c *ManualClock) Advance(d time.Duration) {
	c.mutex.Lock()
	c.now += d.Seconds()
	c.mutex.Unlock()
}
