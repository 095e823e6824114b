package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"kiosk-assistant/internal/ui"
)

var (
	reportDate string
	reportSend bool
	reportJSON bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize the orders of one day",
	Long: `Summarize the orders recorded in the order log for one day (UTC).

Examples:
  kiosk report
  kiosk report --date 2024-01-15 --json
  kiosk report --send
  kiosk report --date 2024-01-15 --send`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()

		day := time.Now().UTC()
		if reportDate != "" {
			day, err = time.Parse("2006-01-02", reportDate)
			if err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
		}

		if reportSend {
			if err := a.SendReport(cmd.Context(), day); err != nil {
				return err
			}
			ui.PrintSuccess("Report for %s sent to the kitchen chat", day.Format("2006-01-02"))
			return nil
		}

		stats, err := a.DailyReport(day)
		if err != nil {
			return err
		}
		if reportJSON {
			js, err := stats.ToJSON()
			if err != nil {
				return err
			}
			fmt.Println(js)
			return nil
		}
		fmt.Print(stats.GenerateReportSummary())
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportDate, "date", "", "day to report, YYYY-MM-DD (default today)")
	reportCmd.Flags().BoolVar(&reportSend, "send", false, "send the report to the kitchen chat")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print JSON")
	rootCmd.AddCommand(reportCmd)
}
