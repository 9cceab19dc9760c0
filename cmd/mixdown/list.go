package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-mixdown/internal/utils"
)

// createListCommand создает команду list с привязкой к экземпляру приложения
func (app *Application) createListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List exported mixdowns",
		Long:  `Display the history of rendered mixdowns with their files and upload URLs.`,
		Run: func(_ *cobra.Command, _ []string) {
			app.listMixdowns()
		},
	}
}

func (app *Application) listMixdowns() {
	if len(app.Library.Mixdowns) == 0 {
		fmt.Println("📚 Библиотека пуста. Сведите сессию с помощью команды 'render'.")
		return
	}

	fmt.Printf("📚 Найдено сведений: %d\n\n", len(app.Library.Mixdowns))

	// Выводим заголовок таблицы
	fmt.Printf("%-4s %-30s %-10s %-6s %-8s %-12s %-16s %s\n",
		"ID", "Название", "Длина", "BPM", "Дорожек", "Размер", "Создано", "URL")
	fmt.Println(strings.Repeat("-", 120))

	for _, m := range app.Library.Mixdowns {
		url := m.URL
		if url == "" {
			url = "-"
		}

		fmt.Printf("%-4d %-30s %-10s %-6d %-8d %-12s %-16s %s\n",
			m.ID,
			utils.TruncateString(m.Name, 28),
			utils.FormatPosition(m.Length),
			m.Tempo,
			m.Tracks,
			utils.FormatFileSize(m.Size),
			m.CreatedAt.Local().Format("2006-01-02 15:04"),
			url)
	}

	fmt.Println()
	fmt.Println("💡 Используйте 'mixdown delete [ID]' для удаления сведения")
}
