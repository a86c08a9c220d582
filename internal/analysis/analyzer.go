package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/telltaleatheist/clippy-sub006/internal/categories"
	"github.com/telltaleatheist/clippy-sub006/internal/config"
	"github.com/telltaleatheist/clippy-sub006/internal/logging"
	"github.com/telltaleatheist/clippy-sub006/internal/prompts"
	"github.com/telltaleatheist/clippy-sub006/internal/response"
	"github.com/telltaleatheist/clippy-sub006/internal/services"
	"github.com/telltaleatheist/clippy-sub006/internal/services/llm"
	"github.com/telltaleatheist/clippy-sub006/internal/transcript"
)

// Sink receives report output as the job produces it.
type Sink interface {
	WriteSection(Section) error
	WriteOverview(description string) error
}

// Options describe one analysis job.
type Options struct {
	// JobID defaults to a random UUID.
	JobID              string
	Segments           []transcript.Segment
	Title              string
	CustomInstructions string
	// Categories overrides the configured categories when non-nil.
	Categories []config.Category
	// Pipeline and Quality override the configured values when set.
	Pipeline string
	Quality  string
	// OpenCategories accepts novel categories in addition to the configured
	// open_categories setting.
	OpenCategories bool
	Report         Sink
	OnProgress     ProgressFunc
}

// JobError is the single failure reported for a job.
type JobError struct {
	JobID string
	Err   error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("analysis job %s failed: %v", e.JobID, e.Err)
}

func (e *JobError) Unwrap() error { return e.Err }

// Analyzer runs analysis jobs against one generator. It is safe to run
// several jobs concurrently; jobs share no mutable state.
type Analyzer struct {
	gen      llm.Generator
	cfg      config.Config
	model    string
	builder  *prompts.Builder
	parser   *response.Parser
	locator  transcript.Locator
	capacity Capacity
	logger   *slog.Logger
}

// AnalyzerOption customizes an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithPromptStore replaces the template store built from the config.
func WithPromptStore(store *prompts.Store) AnalyzerOption {
	return func(a *Analyzer) {
		a.builder = prompts.NewBuilder(store)
	}
}

// WithCapacity pins the model capacity instead of deriving it from the model
// name.
func WithCapacity(c Capacity) AnalyzerOption {
	return func(a *Analyzer) {
		a.capacity = c
	}
}

// New constructs an Analyzer.
func New(gen llm.Generator, cfg *config.Config, logger *slog.Logger, opts ...AnalyzerOption) *Analyzer {
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	logger = logging.NewComponentLogger(logger, "analysis")
	model := cfg.LLM.Model
	if d, ok := gen.(llm.Describer); ok && d.Model() != "" {
		model = d.Model()
	}
	ttl := time.Duration(cfg.Analysis.PromptCacheMinutes) * time.Minute
	a := &Analyzer{
		gen:      gen,
		cfg:      *cfg,
		model:    model,
		builder:  prompts.NewBuilder(prompts.NewStore(cfg.Paths.PromptsDir, ttl, logger)),
		parser:   response.NewParser(logger),
		locator:  locatorFrom(cfg.Analysis),
		capacity: CapacityFor(model),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func locatorFrom(a config.Analysis) transcript.Locator {
	l := transcript.DefaultLocator()
	if a.MinPhraseLength > 0 {
		l.MinPhraseLength = a.MinPhraseLength
	}
	if a.PhrasePrefixLong > 0 {
		l.PrefixLong = a.PhrasePrefixLong
	}
	if a.PhrasePrefixShort > 0 {
		l.PrefixShort = a.PhrasePrefixShort
	}
	if a.WordOverlapThreshold > 0 {
		l.OverlapThreshold = a.WordOverlapThreshold
	}
	return l
}

// Analyze runs one job. The returned error is nil or a *JobError; a
// canceled job returns the partial result with Canceled set.
func (a *Analyzer) Analyze(ctx context.Context, opts Options) (result *Result, err error) {
	jobID := strings.TrimSpace(opts.JobID)
	if jobID == "" {
		jobID = uuid.NewString()
	}
	ctx = services.WithJobID(ctx, jobID)
	logger := logging.WithContext(ctx, a.logger)
	progress := newProgress(opts.OnProgress)

	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logger, "analysis panicked", "job_panic",
				logging.String("panic", fmt.Sprint(r)),
				logging.String("stack", string(debug.Stack())),
			)
			result = nil
			err = &JobError{JobID: jobID, Err: fmt.Errorf("unexpected failure: %v", r)}
		}
		if err != nil {
			progress.fail(err.Error())
		}
	}()

	j, err := a.newJob(ctx, jobID, opts, logger, progress)
	if err != nil {
		logging.ErrorWithContext(logger, "analysis rejected", "job_configuration",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check [[categories]] or paths.categories_file"),
		)
		return nil, &JobError{JobID: jobID, Err: err}
	}
	out, err := j.run(ctx)
	if err != nil {
		return nil, &JobError{JobID: jobID, Err: err}
	}
	return out, nil
}

func (a *Analyzer) newJob(ctx context.Context, jobID string, opts Options, logger *slog.Logger, progress *progress) (*job, error) {
	configured := opts.Categories
	if configured == nil {
		var err error
		configured, err = categories.Resolve(&a.cfg)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "analysis", "load categories", "", err)
		}
	}
	enabled, err := prompts.RequireCategories(configured)
	if err != nil {
		return nil, err
	}

	pipeline := strings.ToLower(strings.TrimSpace(opts.Pipeline))
	if pipeline == "" {
		pipeline = a.cfg.Analysis.Pipeline
	}
	switch pipeline {
	case config.PipelineChapters, config.PipelineChunks:
	default:
		return nil, services.Wrap(services.ErrConfiguration, "analysis", "select pipeline",
			fmt.Sprintf("unknown pipeline %q", pipeline), nil)
	}
	quality := strings.ToLower(strings.TrimSpace(opts.Quality))
	if quality == "" {
		quality = a.cfg.Analysis.Quality
	}

	open := a.cfg.Analysis.OpenCategories || opts.OpenCategories
	return &job{
		a:          a,
		id:         jobID,
		opts:       opts,
		configured: configured,
		enabled:    enabled,
		validator:  categories.NewValidator(enabled, open, logger),
		pipeline:   pipeline,
		quality:    quality,
		segments:   opts.Segments,
		duration:   transcript.Duration(opts.Segments),
		logger:     logger,
		progress:   progress,
		stats:      &TokenStats{},
	}, nil
}

// job holds the state of one run. It is used by a single goroutine.
type job struct {
	a          *Analyzer
	id         string
	opts       Options
	configured []config.Category
	enabled    []categories.Category
	validator  *categories.Validator
	pipeline   string
	quality    string
	segments   []transcript.Segment
	duration   float64
	logger     *slog.Logger
	progress   *progress
	stats      *TokenStats

	sections []Section
	chapters []Chapter
	failed   []int
	canceled bool
}

func (j *job) run(ctx context.Context) (*Result, error) {
	started := time.Now()
	j.logger.Info("analysis started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("pipeline", j.pipeline),
		logging.String("quality", j.quality),
		logging.String(logging.FieldModel, j.a.model),
		logging.Int("segments", len(j.segments)),
		logging.Float64("duration_seconds", j.duration),
		logging.Int("categories", len(j.enabled)),
	)
	j.progress.report(PhaseAnalysis, 0, "Starting analysis")

	switch j.pipeline {
	case config.PipelineChunks:
		j.runChunks(services.WithPhase(ctx, "chunks"))
	default:
		j.runChapters(services.WithPhase(ctx, "chapters"))
	}

	if len(j.sections) == 0 && !j.canceled {
		j.applyEmptyFallback()
	}

	result := &Result{
		JobID:       j.id,
		Pipeline:    j.pipeline,
		Sections:    j.sections,
		Chapters:    j.chapters,
		FailedUnits: j.failed,
		Canceled:    j.canceled,
	}
	if result.Sections == nil {
		result.Sections = []Section{}
	}
	if result.Chapters == nil {
		result.Chapters = []Chapter{}
	}
	result.SectionsCount = len(result.Sections)
	j.progress.report(PhaseAnalysis, progressAnalysisEnd,
		fmt.Sprintf("Analysis complete. Found %d notable sections.", result.SectionsCount))

	if !j.canceled {
		j.synthesizeMetadata(services.WithPhase(ctx, "metadata"), result)
	}
	result.TokenStats = j.stats

	if j.canceled {
		j.logger.Info("analysis canceled",
			logging.String(logging.FieldEventType, "job_canceled"),
			logging.Int("sections", result.SectionsCount),
			logging.Duration("elapsed", time.Since(started)),
		)
		return result, nil
	}
	j.progress.report(PhaseComplete, 100, "Analysis complete")
	j.logger.Info("analysis completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.Int("sections", result.SectionsCount),
		logging.Int("chapters", len(result.Chapters)),
		logging.Int("failed_units", len(result.FailedUnits)),
		logging.Int("api_calls", j.stats.APICalls),
		logging.Int("total_tokens", j.stats.TotalTokens),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// stopped records cancellation and reports whether the job should stop
// issuing calls.
func (j *job) stopped(ctx context.Context) bool {
	if ctx.Err() == nil {
		return false
	}
	if !j.canceled {
		j.canceled = true
		j.logger.Info("cancellation requested; stopping before next call",
			logging.String(logging.FieldEventType, "job_cancel_requested"))
	}
	return true
}

// generate issues one model call and records its usage. An empty reply is
// returned as an error so the retry combinator treats it like a transport
// failure.
func (j *job) generate(ctx context.Context, prompt string) (string, error) {
	out, err := j.a.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	j.stats.Add(out)
	if out.Empty() {
		return "", errEmptyReply
	}
	return out.Text, nil
}

// unusable classifies a reply the parser could not use. Refusal wording is
// only consulted here; parsed replies often quote speech such as "I can't".
func unusable(text string) error {
	if IsRefusal(text) {
		return errRefusal
	}
	return errNoResult
}

func (j *job) writeSection(s Section) {
	if j.opts.Report == nil {
		return
	}
	if err := j.opts.Report.WriteSection(s); err != nil {
		logging.WarnWithContext(j.logger, "report write failed", "report_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "section missing from text report"),
		)
	}
}

func (j *job) logRetry(unit string, number, attempt int, err error) {
	if attempt == 0 || err == nil {
		return
	}
	reason := "error"
	switch {
	case errors.Is(err, errEmptyReply):
		reason = "empty reply"
	case errors.Is(err, errRefusal):
		reason = "refusal"
	case errors.Is(err, errNoResult):
		reason = "unparseable reply"
	}
	j.logger.Warn("model call attempt failed",
		logging.String(logging.FieldEventType, "llm_attempt_failed"),
		logging.String("unit", unit),
		logging.Int("number", number),
		logging.Int(logging.FieldAttempt, attempt),
		logging.String("reason", reason),
		logging.Error(err),
	)
}

func (j *job) retryAttempts() int {
	if n := j.a.cfg.Analysis.RetryAttempts; n > 0 {
		return n
	}
	return 1
}
