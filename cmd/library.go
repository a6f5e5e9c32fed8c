package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/brogergvhs/endless/internal/library"
	"github.com/brogergvhs/endless/internal/store"
	"github.com/brogergvhs/endless/internal/ui"
	"github.com/brogergvhs/endless/internal/util"
)

var (
	flagStatus    string
	flagListState string
	flagYes       bool
)

var libraryCmd = &cobra.Command{
	Use:     "library",
	Aliases: []string{"lib"},
	Short:   "Manage the novels you follow",
}

var libraryAddCmd = &cobra.Command{
	Use:   "add <novel-url>",
	Short: "Add a novel from its landing page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := store.ParseStatus(flagStatus)
		if err != nil {
			return err
		}

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.library.Add(cmd.Context(), args[0], status)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s (%s, %d chapters)\n", library.Label(n.Status), n.Name, n.URI, n.NovelChapters)
		return nil
	},
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the library grouped by reading status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		groups, err := a.library.Groups(cmd.Context())
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			fmt.Println("Library is empty. Add a novel with `endless library add <url>`.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
		for _, g := range groups {
			if flagListState != "" && string(g.Status) != flagListState {
				continue
			}
			_, _ = fmt.Fprintf(w, "%s (%d)\n", g.Label, len(g.Novels))
			for _, n := range g.Novels {
				_, _ = fmt.Fprintf(w, "  %s\t%s\t%d chapters\n", n.Name, n.URI, n.NovelChapters)
			}
		}
		return w.Flush()
	},
}

var libraryShowCmd = &cobra.Command{
	Use:   "show <uri>",
	Short: "Show a novel and the chapters you have read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.library.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		chapters, err := a.store.ListChapters(cmd.Context(), n.ID)
		if err != nil {
			return err
		}

		fmt.Printf("%s\n  uri:      %s\n  site:     %s\n  status:   %s\n  chapters: %d\n\n",
			n.Name, n.URI, n.Site, library.Label(n.Status), n.NovelChapters)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
		_, _ = fmt.Fprintln(w, "CHAPTER\tREAD\tLAST READ")
		for _, c := range chapters {
			_, _ = fmt.Fprintf(w, "%s\t%d%%\t%s\n", c.Title, c.ReadingCompletion, c.LastRead.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var libraryRemoveCmd = &cobra.Command{
	Use:   "remove <uri>",
	Short: "Remove a novel and its reading progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.library.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if !flagYes {
			prompt := promptui.Prompt{
				Label:     fmt.Sprintf("Remove %q and its progress", n.Name),
				IsConfirm: true,
			}
			if _, err := prompt.Run(); err != nil {
				fmt.Println("Aborted.")
				return nil
			}
		}

		if err := a.library.Remove(cmd.Context(), n.URI); err != nil {
			return err
		}
		fmt.Printf("Removed %q\n", n.Name)
		return nil
	},
}

var libraryStatusCmd = &cobra.Command{
	Use:   "status <uri> [status]",
	Short: "Change a novel's reading status",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var status store.Status
		if len(args) == 2 {
			st, err := store.ParseStatus(args[1])
			if err != nil {
				return err
			}
			status = st
		} else {
			items := make([]string, len(store.Statuses))
			for i, st := range store.Statuses {
				items[i] = library.Label(st)
			}
			prompt := promptui.Select{
				Label: "Reading status",
				Items: items,
			}
			idx, _, err := prompt.Run()
			if err != nil {
				return fmt.Errorf("selection cancelled")
			}
			status = store.Statuses[idx]
		}

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.library.SetStatus(cmd.Context(), args[0], status); err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", args[0], library.Label(status))
		return nil
	},
}

var libraryRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Check every novel for new chapters",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := util.WithInterrupt(context.Background())
		defer cancel()

		pm := ui.NewProgressManager(nil)
		lib := library.New(library.Options{
			Store:    a.store,
			Fetcher:  a.scraper,
			Notices:  a.notices,
			Log:      a.log,
			Workers:  a.cfg.RefreshWorkers,
			Rate:     a.cfg.RefreshRate,
			Progress: pm,
		})

		var stats ui.Stats
		res, err := lib.Refresh(ctx, &stats)
		pm.Close()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println("Refresh cancelled.")
				return nil
			}
			return err
		}

		for _, n := range res.Updated {
			fmt.Printf("  %s: %d chapters\n", n.Name, n.NovelChapters)
		}
		for uri, ferr := range res.Failed {
			fmt.Printf("  %s: %v\n", uri, ferr)
		}
		fmt.Printf("\nChecked: %d  Updated: %d  Failed: %d\n",
			stats.Checked.Load(), stats.Updated.Load(), stats.Failed.Load())
		return nil
	},
}

func init() {
	libraryAddCmd.Flags().StringVarP(&flagStatus, "status", "s", string(store.StatusReading),
		"reading status: reading, planToRead, dropped, paused or completed")
	libraryListCmd.Flags().StringVarP(&flagListState, "status", "s", "", "only list novels with this status")
	libraryRemoveCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "skip confirmation")

	libraryCmd.AddCommand(libraryAddCmd, libraryListCmd, libraryShowCmd,
		libraryRemoveCmd, libraryStatusCmd, libraryRefreshCmd)
	rootCmd.AddCommand(libraryCmd)
}
