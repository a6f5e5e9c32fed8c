package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/endless/internal/reader"
	"github.com/brogergvhs/endless/internal/session"
	"github.com/brogergvhs/endless/internal/util"
)

var readCmd = &cobra.Command{
	Use:   "read <chapter-or-novel-url>",
	Short: "Open a page in the terminal reader",
	Long: `Open a chapter or novel page. On chapter pages with the auto loader on,
the next chapter is appended as you scroll to the end and your progress is
saved for novels in your library. Press "a" to toggle the auto loader.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := util.WithInterrupt(context.Background())
		defer cancel()

		sess, err := session.Open(ctx, session.Options{
			URL:                 args[0],
			Fetcher:             a.scraper,
			Store:               a.store,
			Prefs:               a.prefs,
			Notices:             a.notices,
			Log:                 a.log,
			VisibilityThreshold: a.cfg.VisibilityThreshold,
			URLUpdateThreshold:  a.cfg.URLUpdateThreshold,
			ScrollDebounce:      a.cfg.ScrollDebounce(),
			SyncInterval:        a.cfg.SyncInterval(),
		})
		if err != nil {
			return err
		}
		defer sess.Close()

		return reader.Run(sess)
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
}
