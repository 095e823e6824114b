package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"kiosk-assistant/internal/app"
	"kiosk-assistant/internal/config"
	"kiosk-assistant/internal/logger"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "kiosk",
	Short:         "Voice ordering kiosk client",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadApp reads configuration and wires the kiosk.
func loadApp() (*app.App, *logrus.Logger, error) {
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("Warning: %s file not found: %v", envFile, err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	l := logger.New(cfg.LogLevel)
	a, err := app.New(cfg, l)
	if err != nil {
		return nil, nil, err
	}
	return a, l, nil
}
