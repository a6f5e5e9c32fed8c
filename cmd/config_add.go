package cmd

import (
	"fmt"

	"github.com/brogergvhs/endless/internal/config"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var configAddCmd = &cobra.Command{
	Use:   "add [label]",
	Short: "Create a new config profile with default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var label string
		if len(args) == 1 {
			label = args[0]
		} else {
			prompt := promptui.Prompt{Label: "Label for new config"}
			l, err := prompt.Run()
			if err != nil {
				return fmt.Errorf("input cancelled")
			}
			label = l
		}

		path, err := config.CreateConfig(label)
		if err != nil {
			return err
		}

		fmt.Printf("Created new config: %s\n", path)
		fmt.Printf("Activate it with `endless config switch %s`.\n", label)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configAddCmd)
}
