package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-mixdown/internal/export"
	"github.com/hazadus/go-mixdown/internal/player"
	"github.com/hazadus/go-mixdown/internal/tui"
)

// createTUICommand создает команду tui с привязкой к экземпляру приложения
func (app *Application) createTUICommand(ctx context.Context) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch TUI (Terminal User Interface)",
		Long:  `Launch the interactive mixer: transport, track list, track editor and export.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.launchTUI(ctx, name)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", export.DefaultName, "name of the file exported with x")

	return cmd
}

func (app *Application) launchTUI(ctx context.Context, name string) error {
	exporter, err := app.newExporter()
	if err != nil {
		return err
	}

	session, err := app.newSession(ctx, player.NewSpeaker(player.DefaultBufferSize))
	if err != nil {
		return err
	}
	if err := session.Init(); err != nil {
		return err
	}

	// Из интерфейса сведение перезаписывается: экспорт повторяют после каждой правки
	opts := export.Options{Name: name, Overwrite: true, Upload: exporter.service.CanUpload()}
	return tui.NewApp(session, exporter, opts).Run()
}
