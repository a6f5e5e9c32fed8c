package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress <uri>",
	Short: "Show how far you have read a novel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.library.Progress(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s\n", p.Novel.Name)
		fmt.Printf("  chapters read: %d / %d\n", p.ChaptersRead, p.Novel.NovelChapters)
		fmt.Printf("  avg completion: %.0f%%\n", p.AverageCompletion)
		if p.LastRead != nil {
			fmt.Printf("  last read: %s (%d%%) at %s\n",
				p.LastRead.Title, p.LastRead.ReadingCompletion, p.LastRead.LastRead.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(progressCmd)
}
