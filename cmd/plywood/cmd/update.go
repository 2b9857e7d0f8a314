package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update [identifier]",
	Short: "Check installed galleries for newer content",
	Long: `Update compares the installed content version of a gallery against
its remote config. With no identifier, every remote gallery is
checked. Updating itself is an import with --force.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {

		a, _, err := newApp()
		if err != nil {
			exitOn("", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if len(args) == 1 {
			_, diag, err := a.CheckUpdate(ctx, args[0])
			exitOn(diag, err)
			return
		}

		stale, err := a.CheckUpdates(ctx)
		if err != nil {
			exitOn("", err)
		}

		if len(stale) == 0 {
			fmt.Println("All galleries are up to date.")
			return
		}

		fmt.Println("Updates available for:")
		for _, id := range stale {
			fmt.Printf("  %s\n", id)
		}
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
