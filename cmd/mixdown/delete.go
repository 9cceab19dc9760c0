package main

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// createDeleteCommand создает команду delete с привязкой к экземпляру приложения
func (app *Application) createDeleteCommand(ctx context.Context) *cobra.Command {
	var removeFile bool

	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a mixdown by ID",
		Long:  `Delete a mixdown from S3 storage and the library by its ID.`,
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Printf("❌ Ошибка: неверный ID '%s'. ID должен быть числом.\n", args[0])
				return
			}
			app.deleteMixdown(ctx, id, removeFile)
		},
	}
	cmd.Flags().BoolVar(&removeFile, "file", false, "also remove the local WAV file")

	return cmd
}

func (app *Application) deleteMixdown(ctx context.Context, id int, removeFile bool) {
	mixdown, err := app.Library.ByID(id)
	if err != nil {
		fmt.Printf("❌ Ошибка: %v\n", err)
		return
	}

	fmt.Printf("🗑️  Удаляем сведение: %s\n", mixdown.Name)

	// Удаляем файл из S3, если он был выгружен
	if mixdown.URL != "" {
		if err := app.deleteFromS3(ctx, mixdown.URL); err != nil {
			fmt.Printf("⚠️  Предупреждение: не удалось удалить файл из S3: %v\n", err)
			// Продолжаем выполнение, даже если не удалось удалить из S3
		} else {
			fmt.Println("✅ Файл успешно удален из S3")
		}
	}

	if removeFile {
		if err := removeLocal(mixdown.Path); err != nil {
			fmt.Printf("⚠️  Предупреждение: %v\n", err)
		} else {
			fmt.Println("✅ Локальный файл удален")
		}
	}

	if err := app.Library.Delete(id); err != nil {
		fmt.Printf("❌ Ошибка удаления сведения из библиотеки: %v\n", err)
		return
	}

	if err := app.SaveLibrary(); err != nil {
		fmt.Printf("❌ Ошибка сохранения библиотеки: %v\n", err)
		return
	}

	fmt.Println("✅ Сведение успешно удалено из библиотеки")
}

func (app *Application) deleteFromS3(ctx context.Context, fileURL string) error {
	key, err := extractKeyFromURL(fileURL)
	if err != nil {
		return fmt.Errorf("ошибка извлечения ключа из URL: %w", err)
	}

	service, err := app.newExportService()
	if err != nil {
		return err
	}

	return service.Unpublish(ctx, path.Base(key))
}

// extractKeyFromURL извлекает ключ файла из URL S3
func extractKeyFromURL(fileURL string) (string, error) {
	parsedURL, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("неверный URL: %w", err)
	}

	// URL имеет формат endpoint/bucket/key, ключ - все после имени бакета
	pathSegments := strings.TrimPrefix(parsedURL.Path, "/")
	parts := strings.SplitN(pathSegments, "/", 2)
	if len(parts) < 2 || parts[1] == "" {
		return "", fmt.Errorf("неверный формат URL S3")
	}

	return parts[1], nil
}
