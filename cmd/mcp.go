package main

import (
	"CaseComments/internal/mcp"
	"CaseComments/pkg/logger"
	"context"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"syscall"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server (stdio mode)",
	Long: `Start the Model Context Protocol server for AI agent integration.

The server talks over stdio and works on the configured store directly,
so agents can read, post and summarize case discussions.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdout carries the protocol.
	log, err := logger.NewStderrLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	svc, closeStore, err := buildService(log)
	if err != nil {
		return err
	}
	defer closeStore()

	server, err := mcp.NewServer(svc, log)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}
