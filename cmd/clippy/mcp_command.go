package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/telltaleatheist/clippy-sub006/internal/history"
	"github.com/telltaleatheist/clippy-sub006/internal/mcpserver"
	"github.com/telltaleatheist/clippy-sub006/internal/services/llm"
	"github.com/telltaleatheist/clippy-sub006/internal/workflow"
)

func newMCPCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve analysis tools over MCP on stdin/stdout",
		Long: `Run an MCP server on stdin/stdout exposing analyze_transcript,
list_analyses, and get_analysis. Logs go to stderr and the log file so
stdout carries only protocol messages.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.loggerValue()

			// One tracker for the server lifetime keeps repeat jobs from
			// re-probing a warm model.
			tracker := llm.NewKeepAlive(time.Duration(cfg.LLM.KeepAliveMinutes)*time.Minute, nil)
			client, err := llm.New(cfg, llm.Overrides{}, tracker, logger)
			if err != nil {
				return err
			}

			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := workflow.NewRunner(cfg, client, store, logger)
			srv := mcpserver.New(runner, store, version, logger)
			return srv.Serve(runCtx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
