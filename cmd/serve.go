package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/endless/internal/server"
	"github.com/brogergvhs/endless/internal/util"
)

var flagServeAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the library and settings over a JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := util.WithInterrupt(context.Background())
		defer cancel()

		return server.New(server.Options{
			Library: a.library,
			Store:   a.store,
			Prefs:   a.prefs,
			Log:     a.log,
			Debug:   a.cfg.Debug,
		}).Run(ctx, a.cfg.ServeAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}
