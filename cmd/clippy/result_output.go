package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telltaleatheist/clippy-sub006/internal/analysis"
	"github.com/telltaleatheist/clippy-sub006/internal/transcript"
)

const descriptionCellWidth = 60

func printResult(cmd *cobra.Command, result *analysis.Result) {
	out := cmd.OutOrStdout()
	if result.Canceled {
		fmt.Fprintln(out, "Analysis canceled; partial results follow.")
		fmt.Fprintln(out)
	}

	if result.SuggestedTitle != "" {
		fmt.Fprintf(out, "Suggested title: %s\n", result.SuggestedTitle)
	}
	if result.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", result.Description)
	}
	if result.Tags != nil {
		printTags(out, "People", result.Tags.People)
		printTags(out, "Topics", result.Tags.Topics)
	}

	if len(result.Chapters) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Chapters")
		fmt.Fprintln(out, renderChapters(result.Chapters))
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Sections (%d)\n", result.SectionsCount)
	if len(result.Sections) > 0 {
		fmt.Fprintln(out, renderSections(result.Sections))
	}

	if len(result.FailedUnits) > 0 {
		units := make([]string, len(result.FailedUnits))
		for i, n := range result.FailedUnits {
			units[i] = strconv.Itoa(n)
		}
		unit := "chunks"
		if result.Pipeline == "chapters" {
			unit = "chapters"
		}
		fmt.Fprintf(out, "Skipped %s after retries: %s\n", unit, strings.Join(units, ", "))
	}
	if s := result.TokenStats; s != nil {
		fmt.Fprintf(out, "Model usage: %d calls, %d tokens (%d in / %d out), est. $%.4f\n",
			s.APICalls, s.TotalTokens, s.InputTokens, s.OutputTokens, s.EstimatedCost)
	}
}

func printTags(out io.Writer, label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(out, "%s: %s\n", label, strings.Join(values, ", "))
}

func renderSections(sections []analysis.Section) string {
	rows := make([][]string, 0, len(sections))
	for _, s := range sections {
		rows = append(rows, []string{
			s.StartTime,
			s.EndTime,
			s.Category,
			s.Description,
			strconv.Itoa(len(s.Quotes)),
		})
	}
	return renderTable([]column{
		{Header: "Start", Right: true},
		{Header: "End", Right: true},
		{Header: "Category"},
		{Header: "Description", MaxWidth: descriptionCellWidth},
		{Header: "Quotes", Right: true},
	}, rows)
}

func renderChapters(chapters []analysis.Chapter) string {
	rows := make([][]string, 0, len(chapters))
	for _, c := range chapters {
		rows = append(rows, []string{
			strconv.Itoa(c.Sequence),
			transcript.FormatDisplay(c.StartTime),
			transcript.FormatDisplay(c.EndTime),
			truncateCell(c.Title, descriptionCellWidth),
		})
	}
	return renderTable([]column{
		{Header: "#", Right: true},
		{Header: "Start", Right: true},
		{Header: "End", Right: true},
		{Header: "Title"},
	}, rows)
}
