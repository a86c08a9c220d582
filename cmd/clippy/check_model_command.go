package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/telltaleatheist/clippy-sub006/internal/services/llm"
)

const checkModelTimeout = 6 * time.Minute

func newCheckModelCommand(ctx *commandContext) *cobra.Command {
	var provider, model string

	cmd := &cobra.Command{
		Use:   "check-model",
		Short: "Verify the configured model is reachable and answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newClient(llm.Overrides{
				Provider: strings.ToLower(strings.TrimSpace(provider)),
				Model:    strings.TrimSpace(model),
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Checking %s model %s...\n", client.Provider(), client.Model())

			probeCtx, cancel := context.WithTimeout(cmd.Context(), checkModelTimeout)
			defer cancel()
			started := time.Now()
			if err := client.Verify(probeCtx); err != nil {
				return fmt.Errorf("model check failed: %w", err)
			}
			fmt.Fprintf(out, "Model ready (%s)\n", time.Since(started).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "Override llm.provider")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Override llm.model")
	return cmd
}
