package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-mixdown/internal/export"
	"github.com/hazadus/go-mixdown/internal/player"
	"github.com/hazadus/go-mixdown/internal/render"
	"github.com/hazadus/go-mixdown/internal/s3"
	"github.com/hazadus/go-mixdown/internal/utils"
)

// createRenderCommand создает команду render с привязкой к экземпляру приложения
func (app *Application) createRenderCommand(ctx context.Context) *cobra.Command {
	var opts export.Options

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the session to a WAV file",
		Long:  `Render all enabled tracks through their effect chains into a 16-bit stereo WAV file, optionally uploading it to S3.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Создаем контекст с таймаутом для рендеринга и загрузки (10 минут)
			renderCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
			defer cancel()
			return app.renderSession(renderCtx, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Name, "name", "n", export.DefaultName, "name of the exported file")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "overwrite an existing file")
	cmd.Flags().BoolVar(&opts.Upload, "upload", false, "upload the rendered file to S3")

	return cmd
}

// newExportService создает сервис экспорта. Выгрузка подключается, если настроен S3.
func (app *Application) newExportService() (*export.Service, error) {
	var uploader export.Uploader
	if app.Config.UploadEnabled() {
		s3Uploader, err := s3.NewUploader(&s3.Config{
			Region:     app.Config.AwsRegion,
			AccessKey:  app.Config.AwsAccessKey,
			SecretKey:  app.Config.AwsSecretKey,
			Endpoint:   app.Config.AwsEndpoint,
			BucketName: app.Config.AwsBucketName,
		})
		if err != nil {
			return nil, fmt.Errorf("ошибка создания S3 uploader: %w", err)
		}
		uploader = s3Uploader
	}

	return export.NewService(render.NewRenderer(app.Logger), uploader, app.Config.ExportDir, app.Logger), nil
}

// renderSession сводит сессию в файл с отображением прогресса
func (app *Application) renderSession(ctx context.Context, opts export.Options) error {
	session, err := app.newSession(ctx, player.NewHeadless())
	if err != nil {
		return err
	}

	exporter, err := app.newExporter()
	if err != nil {
		return err
	}

	snap := session.Snapshot()
	fmt.Printf("🎚️  Сводим сессию:\n")
	fmt.Printf("   Дорожек: %d\n", len(snap.Tracks))
	fmt.Printf("   Темп: %d BPM\n", snap.Tempo)
	fmt.Printf("   Длительность: %s\n", utils.FormatPosition(render.Length(snap)))
	fmt.Printf("   Частота: %d Hz\n", int(snap.SampleRate))
	if opts.Upload {
		fmt.Printf("   Бакет: %s\n", app.Config.AwsBucketName)
	}
	fmt.Println()

	startTime := time.Now()
	result, err := exporter.Export(ctx, snap, opts, func(stage export.Stage, done, total int64) {
		if total <= 0 {
			return
		}
		percentage := float64(done) / float64(total) * 100
		switch stage {
		case export.StageRender:
			fmt.Printf("\r🎛️  Рендеринг: %.1f%% | Прошло: %s",
				percentage,
				utils.FormatDuration(time.Since(startTime)))
		case export.StageUpload:
			fmt.Printf("\r📤 Выгрузка: %.1f%% | %s / %s",
				percentage,
				utils.FormatFileSize(done),
				utils.FormatFileSize(total))
		}
	})
	if result != nil {
		fmt.Printf("\n✅ Сведение сохранено: %s\n", result.Path)
		fmt.Printf("   Размер: %s\n", utils.FormatFileSize(result.Size))
		fmt.Printf("   Длительность: %s\n", utils.FormatPosition(result.Duration.Seconds()))
		fmt.Printf("   Пик: %s\n", utils.FormatGain(result.Peak))
		if result.URL != "" {
			fmt.Printf("   URL: %s\n", result.URL)
		}
	}
	if err != nil {
		fmt.Println()
		return err
	}

	return nil
}
