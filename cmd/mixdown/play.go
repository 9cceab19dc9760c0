package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-mixdown/internal/engine"
	"github.com/hazadus/go-mixdown/internal/player"
	"github.com/hazadus/go-mixdown/internal/render"
	"github.com/hazadus/go-mixdown/internal/utils"
)

// statusInterval - период обновления строки состояния
const statusInterval = engine.DefaultTickInterval

// createPlayCommand создает команду play с привязкой к экземпляру приложения
func (app *Application) createPlayCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play the session through the speaker",
		Long:  `Play all enabled tracks through the speaker with keyboard transport control.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.playSession(ctx)
		},
	}
}

// enableRawMode включает режим raw для терминала (без буферизации и echo)
func enableRawMode() {
	cmd := exec.Command("stty", "-echo", "-icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run() // Игнорируем ошибку, так как это не критично для работы плеера
}

// disableRawMode восстанавливает нормальный режим терминала
func disableRawMode() {
	cmd := exec.Command("stty", "echo", "icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run()
}

// readKeys читает одиночные символы без ожидания Enter
func readKeys(keys chan<- byte) {
	buffer := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buffer); err != nil {
			close(keys)
			return
		}
		keys <- buffer[0]
	}
}

func (app *Application) playSession(ctx context.Context) error {
	session, err := app.newSession(ctx, player.NewSpeaker(player.DefaultBufferSize))
	if err != nil {
		return err
	}
	if err := session.Init(); err != nil {
		return err
	}
	defer session.Close()

	tracks := session.Tracks().ListTracks()
	if len(tracks) == 0 {
		return fmt.Errorf("сессия пуста: добавьте дорожки флагами --audio, --url или --instrument")
	}

	fmt.Printf("🎵 Сейчас играет:\n")
	for _, t := range tracks {
		fmt.Printf("   %d. %s (%s, %s)\n", t.ID, t.Name, t.Kind(), utils.FormatPosition(t.Duration(session.Tempo())))
	}
	fmt.Println()
	fmt.Printf("🎮 Управление:\n")
	fmt.Printf("   [Пробел] - пауза/воспроизведение  [s] - стоп\n")
	fmt.Printf("   [l] - петля  [c] - метроном  [+/-] - темп  [k] - маркер\n")
	fmt.Printf("   [q] или [Ctrl+C] - выйти\n")
	fmt.Println()

	enableRawMode()
	defer disableRawMode()

	keys := make(chan byte)
	go readKeys(keys)

	monitorCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	status := session.Monitor(monitorCtx, statusInterval)

	session.Play()

	for {
		select {
		case res, ok := <-status:
			if !ok {
				fmt.Println("\n🚫 Операция отменена")
				return ctx.Err()
			}
			displayStatus(session, res)
			if finished(session, res) {
				fmt.Println("\n✅ Воспроизведение завершено")
				return nil
			}
		case key, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			if key == 'q' {
				fmt.Println("\n⏹️  Воспроизведение остановлено пользователем")
				session.Stop()
				return nil
			}
			handleKey(session, key)
		}
	}
}

// handleKey выполняет команду транспорта по нажатой клавише
func handleKey(session *engine.Session, key byte) {
	switch key {
	case ' ', '\n', '\r':
		session.TogglePlay()
	case 's':
		session.Stop()
	case 'l':
		session.ToggleLoop()
	case 'c':
		session.ToggleClick()
	case '+', '=':
		session.SetTempo(session.Tempo() + 5)
	case '-':
		session.SetTempo(session.Tempo() - 5)
	case 'k':
		session.AddMarker()
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		_ = session.JumpToMarker(int(key - '1'))
	}
}

// finished сообщает, что воспроизведение без петли дошло до конца сессии
func finished(session *engine.Session, res engine.TickResult) bool {
	if res.State != engine.Playing || session.Loop().Enabled {
		return false
	}
	length := render.Length(render.Snapshot{
		Tracks: session.Tracks().ListTracks(),
		Tempo:  session.Tempo(),
	})
	return res.Playhead >= length
}

// displayStatus отображает строку состояния транспорта
func displayStatus(session *engine.Session, res engine.TickResult) {
	statusIcon := "▶️"
	switch res.State {
	case engine.Paused:
		statusIcon = "⏸️"
	case engine.Stopped:
		statusIcon = "⏹️"
	}

	click := " "
	if res.Clicked {
		click = "●"
	}

	loop := ""
	if l := session.Loop(); l.Enabled {
		loop = fmt.Sprintf(" | Петля: %s–%s", utils.FormatPosition(l.Start), utils.FormatPosition(l.End))
	}

	fmt.Printf("\r\033[K%s  %s | %d BPM | Доля: %d %s%s",
		statusIcon,
		utils.FormatPosition(res.Playhead),
		session.Tempo(),
		res.Beat+1,
		click,
		loop)
}
