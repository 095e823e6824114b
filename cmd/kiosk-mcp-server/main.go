// Command kiosk-mcp-server drives a kiosk session over MCP on stdin/stdout.
// Logs go to stderr so they never mix with the protocol stream.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"kiosk-assistant/internal/app"
	"kiosk-assistant/internal/config"
	"kiosk-assistant/internal/logger"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	l := logger.New(cfg.LogLevel)

	a, err := app.New(cfg, l)
	if err != nil {
		l.WithError(err).Fatal("failed to build kiosk")
	}
	defer a.Close()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "kiosk-assistant-mcp",
		Version: "1.0.0",
	}, nil)
	registerTools(server, newKioskTools(a.Kiosk, l))

	l.Info("starting kiosk MCP server on stdin/stdout")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil {
		l.WithError(err).Error("kiosk MCP server failed")
	}
}
