// Package mcpserver exposes transcript analysis to MCP clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/telltaleatheist/clippy-sub006/internal/config"
	"github.com/telltaleatheist/clippy-sub006/internal/history"
	"github.com/telltaleatheist/clippy-sub006/internal/logging"
	"github.com/telltaleatheist/clippy-sub006/internal/workflow"
)

const (
	serverName = "clippy"

	toolAnalyze = "analyze_transcript"
	toolList    = "list_analyses"
	toolGet     = "get_analysis"

	defaultListLimit = 20
)

// Server wires the analysis tools into an MCP server.
type Server struct {
	runner  *workflow.Runner
	store   *history.Store
	logger  *slog.Logger
	mcp     *server.MCPServer
	version string
}

// New builds the server. store may be nil, in which case the history tools
// report that history is disabled.
func New(runner *workflow.Runner, store *history.Store, version string, logger *slog.Logger) *Server {
	s := &Server{
		runner:  runner,
		store:   store,
		logger:  logging.NewComponentLogger(logger, "mcp"),
		version: version,
	}
	s.mcp = server.NewMCPServer(serverName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.mcp.AddTool(analyzeTool(), s.handleAnalyze)
	s.mcp.AddTool(listTool(), s.handleList)
	s.mcp.AddTool(getTool(), s.handleGet)
	return s
}

func analyzeTool() mcp.Tool {
	return mcp.NewTool(toolAnalyze,
		mcp.WithDescription("Analyze a timestamped transcript (.json segments or .srt) and return flagged sections, chapters, tags, and a description."),
		mcp.WithString("transcript_path", mcp.Required(), mcp.Description("Path to the transcript file")),
		mcp.WithString("title", mcp.Description("Video title used as context")),
		mcp.WithString("custom_instructions", mcp.Description("Extra guidance appended to every prompt")),
		mcp.WithString("pipeline", mcp.Enum(config.PipelineChapters, config.PipelineChunks), mcp.Description("Analysis pipeline")),
		mcp.WithString("quality", mcp.Enum(config.QualityFast, config.QualityThorough), mcp.Description("Chunk pipeline quality")),
		mcp.WithString("report_path", mcp.Description("Write the text report to this path")),
		mcp.WithBoolean("open_categories", mcp.Description("Accept categories the model invents")),
	)
}

func listTool() mcp.Tool {
	return mcp.NewTool(toolList,
		mcp.WithDescription("List recent analysis jobs, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum jobs to return (default 20)")),
	)
}

func getTool() mcp.Tool {
	return mcp.NewTool(toolGet,
		mcp.WithDescription("Return the stored result of a past analysis job."),
		mcp.WithString("job_id", mcp.Required(), mcp.Description("Job id or unique prefix")),
	)
}

// Serve speaks MCP over in and out until ctx is done or in closes.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(log.New(io.Discard, "", 0))
	s.logger.Info("mcp server listening on stdio", logging.String("version", s.version))
	return stdio.Listen(ctx, in, out)
}

func (s *Server) handleAnalyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("transcript_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := s.runner.Run(ctx, workflow.Request{
		TranscriptPath:     path,
		Title:              req.GetString("title", ""),
		CustomInstructions: req.GetString("custom_instructions", ""),
		Pipeline:           req.GetString("pipeline", ""),
		Quality:            req.GetString("quality", ""),
		ReportPath:         req.GetString("report_path", ""),
		OpenCategories:     req.GetBool("open_categories", false),
	})
	if err != nil {
		s.logger.Warn("analysis tool failed", logging.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	return jsonResult(result)
}

type jobSummary struct {
	ID        string  `json:"id"`
	Title     string  `json:"title,omitempty"`
	Source    string  `json:"source,omitempty"`
	Status    string  `json:"status"`
	Pipeline  string  `json:"pipeline,omitempty"`
	Model     string  `json:"model,omitempty"`
	Sections  int     `json:"sections"`
	Tokens    int     `json:"total_tokens"`
	Cost      float64 `json:"estimated_cost"`
	CreatedAt string  `json:"created_at"`
	Error     string  `json:"error,omitempty"`
}

func (s *Server) handleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return mcp.NewToolResultError("history is disabled"), nil
	}
	limit := req.GetInt("limit", defaultListLimit)
	jobs, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]jobSummary, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, jobSummary{
			ID:        j.ID,
			Title:     j.Title,
			Source:    j.Source,
			Status:    string(j.Status),
			Pipeline:  j.Pipeline,
			Model:     j.Model,
			Sections:  j.Sections,
			Tokens:    j.Usage.TotalTokens(),
			Cost:      j.Usage.EstimatedCost,
			CreatedAt: j.CreatedAt.Format("2006-01-02 15:04:05"),
			Error:     j.Error,
		})
	}
	return jsonResult(out)
}

func (s *Server) handleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return mcp.NewToolResultError("history is disabled"), nil
	}
	id, err := req.RequireString("job_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	job, err := s.store.FindByPrefix(ctx, strings.TrimSpace(id))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if job == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no job matches %q", id)), nil
	}
	result, err := workflow.LoadResult(job)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("job %s (%s): %v", job.ID, job.Status, err)), nil
	}
	return jsonResult(result)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
