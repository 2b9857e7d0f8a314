package cmd

import (
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <identifier>",
	Short: "Uninstall a gallery",
	Long: `Remove unregisters a gallery by its identifier (the source URL for
remote galleries, the config file path for local ones). Remote gallery
content is deleted from the store; local gallery files are left alone.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {

		a, _, err := newApp()
		if err != nil {
			exitOn("", err)
		}

		diag, err := a.Remove(args[0])
		exitOn(diag, err)
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
