package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-mixdown/internal/metadata"
	"github.com/hazadus/go-mixdown/internal/utils"
)

// createInfoCommand создает команду info с привязкой к экземпляру приложения
func (app *Application) createInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info [file path]...",
		Short: "Show tags and audio parameters of files",
		Long:  `Display tags, duration, sample rate and size of audio files before adding them to a session.`,
		Args:  cobra.MinimumNArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			app.showInfo(args)
		},
	}
}

func (app *Application) showInfo(paths []string) {
	extractor := metadata.NewExtractor()

	// Выводим заголовок таблицы
	fmt.Printf("%-30s %-30s %-20s %-10s %-8s %-4s %-12s\n",
		"Дорожка", "Исполнитель", "Альбом", "Длина", "Частота", "Кан", "Размер")
	fmt.Println(strings.Repeat("-", 120))

	for _, path := range paths {
		info, err := extractor.GetFileInfo(path)
		if err != nil {
			fmt.Printf("❌ %s: %v\n", path, err)
			continue
		}

		fmt.Printf("%-30s %-30s %-20s %-10s %-8d %-4d %-12s\n",
			utils.TruncateString(info.Metadata.DisplayName(), 28),
			utils.TruncateString(info.Metadata.Artist, 28),
			utils.TruncateString(info.Metadata.Album, 18),
			utils.FormatDuration(info.Duration),
			info.SampleRate,
			info.Channels,
			utils.FormatFileSize(info.Size))
	}

	fmt.Println()
	fmt.Println("💡 Используйте 'mixdown play --audio [файл]' для прослушивания в сессии")
}
