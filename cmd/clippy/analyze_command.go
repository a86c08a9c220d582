package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/telltaleatheist/clippy-sub006/internal/config"
	"github.com/telltaleatheist/clippy-sub006/internal/history"
	"github.com/telltaleatheist/clippy-sub006/internal/logging"
	"github.com/telltaleatheist/clippy-sub006/internal/services/llm"
	"github.com/telltaleatheist/clippy-sub006/internal/workflow"
)

type analyzeOptions struct {
	provider       string
	model          string
	pipeline       string
	quality        string
	title          string
	instructions   string
	reportPath     string
	srtPath        string
	openCategories bool
	noHistory      bool
	skipProbe      bool
	jsonOutput     bool
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <transcript>",
		Short: "Analyze a transcript (JSON segments or SRT)",
		Long: `Analyze a transcript and report notable sections, chapters, quotes,
a description, tags, and a suggested filename.

The transcript is either a JSON array of {"start", "end", "text"} segments or
an SRT file. Press Ctrl+C to stop; sections found so far are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, ctx, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.provider, "provider", "", "Override llm.provider (ollama, openrouter, openai)")
	flags.StringVarP(&opts.model, "model", "m", "", "Override llm.model")
	flags.StringVar(&opts.pipeline, "pipeline", "", "Pipeline: chapters or chunks")
	flags.StringVar(&opts.quality, "quality", "", "Chunk pipeline quality: fast or thorough")
	flags.StringVarP(&opts.title, "title", "t", "", "Video title (defaults to the file name)")
	flags.StringVar(&opts.instructions, "instructions", "", "Extra instructions included in every analysis prompt")
	flags.StringVarP(&opts.reportPath, "report", "o", "", "Write the plain-text report to this path")
	flags.StringVar(&opts.srtPath, "srt", "", "Export the transcript as SRT to this path")
	flags.BoolVar(&opts.openCategories, "open-categories", false, "Accept categories the model invents")
	flags.BoolVar(&opts.noHistory, "no-history", false, "Do not record this job in history")
	flags.BoolVar(&opts.skipProbe, "skip-probe", false, "Skip the model availability check")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print the result as JSON")
	return cmd
}

func runAnalyze(cmd *cobra.Command, ctx *commandContext, path string, opts analyzeOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := checkChoice("pipeline", opts.pipeline, config.PipelineChapters, config.PipelineChunks); err != nil {
		return err
	}
	if err := checkChoice("quality", opts.quality, config.QualityFast, config.QualityThorough); err != nil {
		return err
	}
	logger := ctx.loggerValue()

	client, err := ctx.newClient(llm.Overrides{
		Provider: strings.ToLower(strings.TrimSpace(opts.provider)),
		Model:    strings.TrimSpace(opts.model),
	})
	if err != nil {
		return err
	}

	var store *history.Store
	if !opts.noHistory {
		store, err = history.Open(cfg)
		if err != nil {
			logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "job will not appear in clippy history"),
			)
			store = nil
		} else {
			defer store.Close()
		}
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := newProgressPrinter(cmd.ErrOrStderr())
	runner := workflow.NewRunner(cfg, client, store, logger)
	result, err := runner.Run(runCtx, workflow.Request{
		TranscriptPath:     path,
		Title:              opts.title,
		CustomInstructions: opts.instructions,
		Pipeline:           opts.pipeline,
		Quality:            opts.quality,
		OpenCategories:     opts.openCategories,
		ReportPath:         opts.reportPath,
		SRTPath:            opts.srtPath,
		SkipProbe:          opts.skipProbe,
		OnProgress:         progress.callback(),
	})
	progress.finish()
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		return writeJSON(cmd, result)
	}
	printResult(cmd, result)
	if opts.reportPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "\nReport written to %s\n", opts.reportPath)
	}
	if result.Canceled {
		return context.Canceled
	}
	return nil
}

func checkChoice(name, value string, allowed ...string) error {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("--%s must be one of %s (got %q)", name, strings.Join(allowed, ", "), value)
}
