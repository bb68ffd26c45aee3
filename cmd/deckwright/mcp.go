package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpadapter "github.com/deckwright/deckwright/internal/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server (stdio by default)",
	Long:  `Exposes the workflow as MCP tools so agent hosts can drive sessions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		app, err := buildApp(cfg, logger, nil)
		if err != nil {
			return err
		}
		defer app.Sessions.Flush()

		server := mcpadapter.NewServer(app.Machine, app.Sessions, mcpadapter.WithLogger(logger))

		ssePort, _ := cmd.Flags().GetInt("sse-port")
		if ssePort > 0 {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.ServeSSE(ctx, ssePort)
		}
		return server.ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().Int("sse-port", 0, "Serve over SSE on this port instead of stdio")
}
