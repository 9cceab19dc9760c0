package engine

import (
	"context"
	"time"
)

// DefaultTickInterval - период шага транспорта, около 60 раз в секунду
const DefaultTickInterval = time.Second / 60

// Monitor запускает горутину, которая вызывает Tick с заданным периодом
// и отправляет результаты в канал. Если получатель не успевает,
// обновление пропускается. Канал закрывается при отмене ctx.
func (s *Session) Monitor(ctx context.Context, interval time.Duration) <-chan TickResult {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	out := make(chan TickResult, 1)

	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				res := s.Tick()
				select {
				case out <- res:
				default:
					// Если канал заблокирован, пропускаем обновление
				}
			}
		}
	}()

	return out
}
