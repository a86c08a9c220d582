package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/telltaleatheist/clippy-sub006/internal/analysis"
	"github.com/telltaleatheist/clippy-sub006/internal/config"
	"github.com/telltaleatheist/clippy-sub006/internal/history"
	"github.com/telltaleatheist/clippy-sub006/internal/logging"
	"github.com/telltaleatheist/clippy-sub006/internal/report"
	"github.com/telltaleatheist/clippy-sub006/internal/services"
	"github.com/telltaleatheist/clippy-sub006/internal/services/llm"
	"github.com/telltaleatheist/clippy-sub006/internal/transcript"
)

const probeTimeout = 6 * time.Minute

// Request describes one job.
type Request struct {
	JobID string
	// TranscriptPath is read when Segments is nil.
	TranscriptPath     string
	Segments           []transcript.Segment
	Title              string
	CustomInstructions string
	Pipeline           string
	Quality            string
	OpenCategories     bool
	// ReportPath receives the text report when set.
	ReportPath string
	// SRTPath receives an SRT export of the input segments when set.
	SRTPath    string
	SkipProbe  bool
	OnProgress analysis.ProgressFunc
}

// Runner executes jobs against one generator.
type Runner struct {
	cfg      *config.Config
	gen      llm.Generator
	analyzer *analysis.Analyzer
	history  *history.Store
	logger   *slog.Logger
}

// NewRunner builds a runner. store may be nil to skip history.
func NewRunner(cfg *config.Config, gen llm.Generator, store *history.Store, logger *slog.Logger, opts ...analysis.AnalyzerOption) *Runner {
	logger = logging.NewComponentLogger(logger, "workflow")
	return &Runner{
		cfg:      cfg,
		gen:      gen,
		analyzer: analysis.New(gen, cfg, logger, opts...),
		history:  store,
		logger:   logger,
	}
}

// Run executes the request. A canceled job returns its partial result
// without error.
func (r *Runner) Run(ctx context.Context, req Request) (*analysis.Result, error) {
	jobID := strings.TrimSpace(req.JobID)
	if jobID == "" {
		jobID = uuid.NewString()
	}
	ctx = services.WithJobID(ctx, jobID)
	logger := logging.WithContext(ctx, r.logger)

	segments, err := r.segments(req)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" && req.TranscriptPath != "" {
		base := filepath.Base(req.TranscriptPath)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if req.SRTPath != "" {
		if err := exportSRT(req.SRTPath, segments); err != nil {
			return nil, err
		}
		logger.Info("transcript exported", logging.String("srt", req.SRTPath))
	}

	if !req.SkipProbe {
		if err := r.probe(ctx, logger); err != nil {
			return nil, err
		}
	}

	var sink analysis.Sink
	if req.ReportPath != "" {
		w, err := report.Open(req.ReportPath, logger)
		if err != nil {
			return nil, err
		}
		defer func() {
			if cerr := w.Close(); cerr != nil {
				logger.Warn("report close failed", logging.Error(cerr))
			}
		}()
		sink = w
	}

	r.beginHistory(ctx, logger, history.Job{
		ID:       jobID,
		Source:   req.TranscriptPath,
		Title:    title,
		Provider: r.providerName(),
		Model:    r.modelName(),
		Pipeline: r.pipelineName(req.Pipeline),
	})

	result, err := r.analyzer.Analyze(ctx, analysis.Options{
		JobID:              jobID,
		Segments:           segments,
		Title:              title,
		CustomInstructions: req.CustomInstructions,
		Pipeline:           req.Pipeline,
		Quality:            req.Quality,
		OpenCategories:     req.OpenCategories,
		Report:             sink,
		OnProgress:         req.OnProgress,
	})
	r.finishHistory(logger, jobID, result, err)
	return result, err
}

func (r *Runner) segments(req Request) ([]transcript.Segment, error) {
	if req.Segments != nil {
		return req.Segments, nil
	}
	path := strings.TrimSpace(req.TranscriptPath)
	if path == "" {
		return nil, services.Wrap(services.ErrValidation, "workflow", "load transcript", "transcript path required", nil)
	}
	segments, err := transcript.Load(path)
	if errors.Is(err, transcript.ErrEmptyTranscript) {
		// An empty transcript still produces the no-speech fallback.
		return []transcript.Segment{}, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "workflow", "load transcript", path, err)
	}
	return segments, nil
}

func exportSRT(path string, segments []transcript.Segment) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create srt directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create srt: %w", err)
	}
	if err := transcript.WriteSRT(f, segments); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// probe checks model availability before any analysis call.
func (r *Runner) probe(ctx context.Context, logger *slog.Logger) error {
	prober, ok := r.gen.(llm.Prober)
	if !ok {
		return nil
	}
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	started := time.Now()
	if err := prober.Probe(probeCtx); err != nil {
		logging.ErrorWithContext(logger, "model unavailable", "model_probe_failed",
			logging.Error(err),
			logging.String(logging.FieldModel, r.modelName()),
			logging.String(logging.FieldErrorHint, "run clippy check-model for details"),
		)
		return err
	}
	logger.Info("model ready",
		logging.String(logging.FieldEventType, "model_probe_passed"),
		logging.String(logging.FieldModel, r.modelName()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func (r *Runner) beginHistory(ctx context.Context, logger *slog.Logger, job history.Job) {
	if r.history == nil {
		return
	}
	if _, err := r.history.Begin(ctx, job); err != nil {
		logging.WarnWithContext(logger, "history record failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "job will not appear in clippy history"),
		)
	}
}

func (r *Runner) finishHistory(logger *slog.Logger, jobID string, result *analysis.Result, runErr error) {
	if r.history == nil {
		return
	}
	out := history.Outcome{Status: history.StatusCompleted}
	switch {
	case runErr != nil:
		out.Status = history.StatusFailed
		out.Error = runErr.Error()
	case result != nil && result.Canceled:
		out.Status = history.StatusCanceled
	}
	if result != nil {
		out.Sections = result.SectionsCount
		if result.TokenStats != nil {
			out.Usage = history.Usage{
				InputTokens:   result.TokenStats.InputTokens,
				OutputTokens:  result.TokenStats.OutputTokens,
				EstimatedCost: result.TokenStats.EstimatedCost,
				APICalls:      result.TokenStats.APICalls,
			}
		}
		data, err := json.Marshal(result)
		if err != nil {
			logger.Warn("result serialization failed", logging.Error(err))
		} else {
			out.ResultJSON = string(data)
		}
	}
	// The job context may already be canceled; history still needs the outcome.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.history.Finish(ctx, jobID, out); err != nil {
		logging.WarnWithContext(logger, "history update failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "job status in clippy history is stale"),
		)
	}
}

func (r *Runner) providerName() string {
	if d, ok := r.gen.(llm.Describer); ok {
		return d.Provider()
	}
	return r.cfg.LLM.Provider
}

func (r *Runner) modelName() string {
	if d, ok := r.gen.(llm.Describer); ok {
		return d.Model()
	}
	return r.cfg.LLM.Model
}

func (r *Runner) pipelineName(override string) string {
	if p := strings.ToLower(strings.TrimSpace(override)); p != "" {
		return p
	}
	return r.cfg.Analysis.Pipeline
}

// LoadResult decodes a result stored in history.
func LoadResult(job *history.Job) (*analysis.Result, error) {
	if job == nil || strings.TrimSpace(job.ResultJSON) == "" {
		return nil, services.Wrap(services.ErrNotFound, "workflow", "load result", "job has no stored result", nil)
	}
	var result analysis.Result
	if err := json.Unmarshal([]byte(job.ResultJSON), &result); err != nil {
		return nil, fmt.Errorf("decode stored result: %w", err)
	}
	return &result, nil
}
