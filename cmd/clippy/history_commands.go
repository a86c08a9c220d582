package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/telltaleatheist/clippy-sub006/internal/history"
	"github.com/telltaleatheist/clippy-sub006/internal/services"
	"github.com/telltaleatheist/clippy-sub006/internal/workflow"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past analysis jobs",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryRemoveCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	historyCmd.AddCommand(newHistoryResetStuckCommand(ctx))

	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				jobs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					views := make([]jobView, 0, len(jobs))
					for _, j := range jobs {
						views = append(views, newJobView(j))
					}
					return writeJSON(cmd, views)
				}
				out := cmd.OutOrStdout()
				if len(jobs) == 0 {
					fmt.Fprintln(out, "No jobs recorded")
					return nil
				}
				fmt.Fprintln(out, renderJobs(jobs))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum jobs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job; the id may be abbreviated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				job, err := findJob(cmd, store, args[0])
				if err != nil {
					return err
				}
				result, resultErr := workflow.LoadResult(job)
				if resultErr != nil && !errors.Is(resultErr, services.ErrNotFound) {
					return resultErr
				}
				if jsonOutput {
					if result != nil {
						return writeJSON(cmd, result)
					}
					return writeJSON(cmd, newJobView(*job))
				}

				out := cmd.OutOrStdout()
				printJob(cmd, *job)
				if result != nil {
					fmt.Fprintln(out)
					printResult(cmd, result)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the stored result as JSON")
	return cmd
}

func newHistoryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <job-id>",
		Aliases: []string{"rm"},
		Short:   "Remove one job from history",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				job, err := findJob(cmd, store, args[0])
				if err != nil {
					return err
				}
				if err := store.Delete(cmd.Context(), job.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed job %s\n", job.ID)
				return nil
			})
		},
	}
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every job from history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear history without --yes")
			}
			return ctx.withHistory(func(store *history.Store) error {
				n, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d job(s)\n", n)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm removal")
	return cmd
}

func newHistoryResetStuckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Mark jobs left running by an exited process as failed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				n, err := store.MarkAbandoned(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %d job(s) as failed\n", n)
				return nil
			})
		},
	}
}

func findJob(cmd *cobra.Command, store *history.Store, id string) (*history.Job, error) {
	job, err := store.FindByPrefix(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, services.Wrap(services.ErrNotFound, "history", "find", fmt.Sprintf("no job matches %q", id), nil)
	}
	return job, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func renderJobs(jobs []history.Job) string {
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{
			shortID(j.ID),
			j.CreatedAt.Local().Format("2006-01-02 15:04"),
			string(j.Status),
			truncateCell(j.Title, 40),
			j.Model,
			j.Pipeline,
			strconv.Itoa(j.Sections),
			strconv.Itoa(j.Usage.TotalTokens()),
		})
	}
	return renderTable([]column{
		{Header: "ID"},
		{Header: "Created"},
		{Header: "Status"},
		{Header: "Title"},
		{Header: "Model"},
		{Header: "Pipeline"},
		{Header: "Sections", Right: true},
		{Header: "Tokens", Right: true},
	}, rows)
}

func printJob(cmd *cobra.Command, j history.Job) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job:      %s\n", j.ID)
	fmt.Fprintf(out, "Title:    %s\n", j.Title)
	if j.Source != "" {
		fmt.Fprintf(out, "Source:   %s\n", j.Source)
	}
	fmt.Fprintf(out, "Status:   %s\n", j.Status)
	fmt.Fprintf(out, "Model:    %s (%s)\n", j.Model, j.Provider)
	fmt.Fprintf(out, "Pipeline: %s\n", j.Pipeline)
	fmt.Fprintf(out, "Started:  %s\n", j.CreatedAt.Local().Format(time.RFC1123))
	if j.Finished() {
		fmt.Fprintf(out, "Finished: %s (%s)\n", j.UpdatedAt.Local().Format(time.RFC1123),
			j.UpdatedAt.Sub(j.CreatedAt).Round(time.Second))
	}
	if msg := strings.TrimSpace(j.Error); msg != "" {
		fmt.Fprintf(out, "Error:    %s\n", msg)
	}
}

// jobView is the JSON shape of a history row.
type jobView struct {
	ID            string    `json:"id"`
	Source        string    `json:"source,omitempty"`
	Title         string    `json:"title"`
	Provider      string    `json:"provider"`
	Model         string    `json:"model"`
	Pipeline      string    `json:"pipeline"`
	Status        string    `json:"status"`
	Sections      int       `json:"sections"`
	Error         string    `json:"error,omitempty"`
	InputTokens   int       `json:"input_tokens"`
	OutputTokens  int       `json:"output_tokens"`
	EstimatedCost float64   `json:"estimated_cost"`
	APICalls      int       `json:"api_calls"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newJobView(j history.Job) jobView {
	return jobView{
		ID:            j.ID,
		Source:        j.Source,
		Title:         j.Title,
		Provider:      j.Provider,
		Model:         j.Model,
		Pipeline:      j.Pipeline,
		Status:        string(j.Status),
		Sections:      j.Sections,
		Error:         j.Error,
		InputTokens:   j.Usage.InputTokens,
		OutputTokens:  j.Usage.OutputTokens,
		EstimatedCost: j.Usage.EstimatedCost,
		APICalls:      j.Usage.APICalls,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
	}
}
