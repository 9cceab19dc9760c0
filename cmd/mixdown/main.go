package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hazadus/go-mixdown/internal/config"
	"github.com/hazadus/go-mixdown/internal/library"
)

// Application хранит конфигурацию и общие зависимости команд
type Application struct {
	Config  *config.Config
	Library *library.Library
	Logger  *slog.Logger

	session sessionFlags
}

// SaveLibrary сохраняет библиотеку сведений
func (app *Application) SaveLibrary() error {
	return app.Library.Save(app.Config.LibraryPath)
}

// newLogger создает логгер ядра. Без отладки выводятся только предупреждения,
// чтобы не мешать строке прогресса.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	cfg, err := config.LoadConfig(config.DefaultPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	lib, err := library.Load(cfg.LibraryPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки библиотеки: %v", err)
	}

	app := &Application{
		Config:  cfg,
		Library: lib,
		Logger:  newLogger(cfg.Debug),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.createRootCommand(ctx).ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		stop()
		os.Exit(1)
	}
}
