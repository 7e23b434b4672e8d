// Terminal admin dashboard of Saffron.

package main

import (
	"os"

	"github.com/spf13/cobra"
)

var root = &cobra.Command{
	Use:   "dashboard",
	Short: "Saffron admin dashboard",
	Long: `Dashboard follows a Saffron server from the terminal.
It keeps the order counters current and alerts on every new order, reservation or cancellation.`,
}

func main() {
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	root.AddCommand(watchCmd)
}
