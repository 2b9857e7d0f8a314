package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store location, gallery counts and disk usage",
	Run: func(cmd *cobra.Command, args []string) {

		a, _, err := newApp()
		if err != nil {
			exitOn("", err)
		}

		diag, err := a.Status()
		exitOn(diag, err)

		u, err := a.Store.Usage()
		if err != nil {
			exitOn("", err)
		}

		if u.DiskTotal > 0 {
			fmt.Printf("Disk: %d of %d bytes free.\n", u.DiskFree, u.DiskTotal)
		}
	},
}

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Delete leftover staging directories",
	Long: `Clear-cache drops the staging area used during imports. Installed
galleries are not touched. Useful after an unclean shutdown left
partial downloads behind.`,
	Run: func(cmd *cobra.Command, args []string) {

		a, _, err := newApp()
		if err != nil {
			exitOn("", err)
		}

		diag, err := a.ClearCache()
		exitOn(diag, err)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(clearCacheCmd)
}
