package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kiosk-assistant/internal/ui"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the conversation service",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()

		st := a.Health.Check(cmd.Context())
		if !st.Healthy {
			ui.PrintError("Conversation service unhealthy (%s)", st.Err)
			return fmt.Errorf("health check failed")
		}
		ui.PrintSuccess("Conversation service healthy: %d %s (%s)", st.StatusCode, st.Body, st.Latency)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
