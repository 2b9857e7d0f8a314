package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rickaym/plywood/internal/gallery"
	"github.com/rickaym/plywood/internal/project"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed galleries and their chapters",
	Run: func(cmd *cobra.Command, args []string) {

		a, _, err := newApp()
		if err != nil {
			exitOn("", err)
		}

		if diag, err := a.Refresh(); err != nil {
			exitOn(diag, err)
		}

		tree := gallery.NewTree(func(external bool) ([]project.Project, error) {
			return a.Galleries(external)
		})

		for _, root := range tree.Roots() {

			fmt.Println(gallery.Label(root))

			galleries, err := tree.Children(root)
			if err != nil {
				exitOn("", err)
			}

			if len(galleries) == 0 {
				fmt.Println("  (none)")
				continue
			}

			for _, g := range galleries {

				fmt.Printf("  %s %s\n", gallery.Label(g), gallery.Description(g))

				chapters, err := tree.Children(g)
				if err != nil {
					exitOn("", err)
				}

				for _, c := range chapters {
					fmt.Printf("    %s (%s)\n", gallery.Label(c), gallery.Description(c))
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
