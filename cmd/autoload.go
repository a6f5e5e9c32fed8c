package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/endless/internal/config"
	"github.com/brogergvhs/endless/internal/prefs"
)

var autoloadCmd = &cobra.Command{
	Use:       "autoload [on|off]",
	Short:     "Show or set whether the next chapter loads automatically",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := prefs.Open(config.StatePath())
		if err != nil {
			return err
		}

		if len(args) == 1 {
			var on bool
			switch args[0] {
			case "on":
				on = true
			case "off":
			default:
				return fmt.Errorf("expected on or off, got %q", args[0])
			}
			if err := p.SetAutoLoad(on); err != nil {
				return err
			}
		}

		on, err := p.AutoLoad()
		if err != nil {
			return err
		}
		state := "off"
		if on {
			state = "on"
		}
		fmt.Println("Auto loader:", state)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(autoloadCmd)
}
