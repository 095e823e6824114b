package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kiosk-assistant/internal/menu"
	"kiosk-assistant/internal/ui"
)

var menuFile string

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Print the menu",
	Long: `Print the menu the assistant orders from.

Without --file the built-in menu is shown.

Examples:
  kiosk menu
  kiosk menu --file menu.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := menu.Load(menuFile)
		if err != nil {
			return err
		}
		fmt.Print(ui.Menu(c))
		return nil
	},
}

func init() {
	menuCmd.Flags().StringVarP(&menuFile, "file", "f", "", "YAML menu file")
	rootCmd.AddCommand(menuCmd)
}
