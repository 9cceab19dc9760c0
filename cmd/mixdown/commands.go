package main

import (
	"context"

	"github.com/spf13/cobra"
)

// createRootCommand создает корневую команду с настроенными подкомандами
func (app *Application) createRootCommand(ctx context.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mixdown",
		Short: "A small multitrack mixer with offline rendering",
		Long: `A small multitrack mixer: load audio files and pattern instruments,
shape them with EQ, pan, delay and reverb, play them in a loop and render the mix to WAV.`,
		SilenceUsage: true,
	}

	app.session.register(rootCmd)

	rootCmd.AddCommand(app.createRenderCommand(ctx))
	rootCmd.AddCommand(app.createPlayCommand(ctx))
	rootCmd.AddCommand(app.createInfoCommand())
	rootCmd.AddCommand(app.createTUICommand(ctx))
	rootCmd.AddCommand(app.createListCommand())
	rootCmd.AddCommand(app.createDeleteCommand(ctx))

	return rootCmd
}
