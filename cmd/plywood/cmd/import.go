package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var force bool

var importCmd = &cobra.Command{
	Use:   "import <url>",
	Short: "Import a gallery from a remote repository",
	Long: `Import fetches a gallery from a repository URL and installs it into
the local store. The URL may carry a branch prefix:

plywood import dev:https://github.com/acme/gallery

Press Ctrl-C to cancel a running import; a cancelled import leaves no
partial gallery behind.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {

		a, _, err := newApp()
		if err != nil {
			exitOn("", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		diag, err := a.ImportRemote(ctx, args[0], force)
		exitOn(diag, err)
	},
}

var importLocalCmd = &cobra.Command{
	Use:   "import-local <path>",
	Short: "Register a gallery config already on this machine",
	Long: `Import-local registers a gallery manifest that lives on the local
filesystem. Nothing is copied; the gallery is read in place.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {

		a, _, err := newApp()
		if err != nil {
			exitOn("", err)
		}

		diag, err := a.ImportLocal(args[0], force)
		exitOn(diag, err)
	},
}

func init() {
	importCmd.Flags().BoolVar(&force, "force", false, "re-import without asking, replacing the installed version")
	importLocalCmd.Flags().BoolVar(&force, "force", false, "re-register without asking")
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(importLocalCmd)
}
