package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"qxcli/internal/config"
	"qxcli/internal/exporter"
	"qxcli/internal/infrastructure"
	"qxcli/internal/qualtrics"
)

// Pipeline step identifiers
const (
	StepIDStart    = "start"
	StepIDWait     = "wait"
	StepIDDownload = "download"
	StepIDExtract  = "extract"
	StepIDFilter   = "filter"
	StepIDWrite    = "write"
)

// Pipeline step names
const (
	StepNameStart    = "Export Job Creation"
	StepNameWait     = "Status Polling"
	StepNameDownload = "Archive Download"
	StepNameExtract  = "Archive Extraction"
	StepNameFilter   = "Row Filtering"
	StepNameWrite    = "Output Write"
)

// ExportClient is the slice of the platform client the pipeline drives
type ExportClient interface {
	StartExport(ctx context.Context, req qualtrics.ExportRequest) (string, error)
	WaitUntilComplete(ctx context.Context, progressID string, interval, timeout time.Duration) (string, error)
	DownloadArchive(ctx context.Context, fileID string) ([]byte, error)
}

// Result summarizes a finished export run
type Result struct {
	RunID       string
	OutputFile  string
	RowsParsed  int
	RowsWritten int
	Duration    time.Duration
}

// Pipeline executes the export workflow as a fixed sequence of steps:
// start, wait, download, extract, filter, write. Execution is strictly
// sequential; the polling step is the only suspension point, and the output
// file is touched only after a fully downloaded and extracted payload.
type Pipeline struct {
	client ExportClient
	cfg    config.ExportConfig
	logger *slog.Logger
	tracer trace.Tracer

	runID string
	steps []*StepState
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithTracer sets the tracer used for per-step spans
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = tracer }
}

// New creates a pipeline for one export run
func New(client ExportClient, cfg config.ExportConfig, opts ...Option) *Pipeline {
	p := &Pipeline{
		client: client,
		cfg:    cfg,
		logger: slog.Default(),
		tracer: otel.Tracer("qxcli/pipeline"),
		runID:  uuid.NewString(),
		steps: []*StepState{
			NewStepState(StepIDStart, StepNameStart),
			NewStepState(StepIDWait, StepNameWait),
			NewStepState(StepIDDownload, StepNameDownload),
			NewStepState(StepIDExtract, StepNameExtract),
			NewStepState(StepIDFilter, StepNameFilter),
			NewStepState(StepIDWrite, StepNameWrite),
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunID returns the unique identifier of this run
func (p *Pipeline) RunID() string {
	return p.runID
}

// Steps returns the step states, in execution order
func (p *Pipeline) Steps() []*StepState {
	return p.steps
}

// Step returns the state of the step with the given ID, or nil
func (p *Pipeline) Step(id string) *StepState {
	for _, s := range p.steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Run executes the export workflow. The first failing step aborts the run
// and its error is returned unchanged for the caller to classify.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	ctx = infrastructure.WithTraceID(ctx, p.runID)
	ctx, span := p.tracer.Start(ctx, "export.run",
		trace.WithAttributes(attribute.String("run.id", p.runID)))
	defer span.End()

	started := time.Now()
	result := &Result{RunID: p.runID, OutputFile: p.cfg.OutputFile}

	p.logger.InfoContext(ctx, "Export run starting",
		slog.String("run_id", p.runID),
		slog.String("output_file", p.cfg.OutputFile))

	var progressID, fileID string
	var archive, raw []byte
	var rows [][]string

	if err := p.runStep(ctx, StepIDStart, func(ctx context.Context) error {
		var err error
		progressID, err = p.client.StartExport(ctx, qualtrics.ExportRequest{
			Format:    p.cfg.Format,
			Compress:  p.cfg.Compress,
			UseLabels: p.cfg.UseLabels,
		})
		return err
	}); err != nil {
		return nil, err
	}

	if err := p.runStep(ctx, StepIDWait, func(ctx context.Context) error {
		var err error
		fileID, err = p.client.WaitUntilComplete(ctx, progressID, p.cfg.PollInterval, p.cfg.PollTimeout)
		return err
	}); err != nil {
		return nil, err
	}

	if err := p.runStep(ctx, StepIDDownload, func(ctx context.Context) error {
		dlCtx, cancel := context.WithTimeout(ctx, p.cfg.DownloadTimeout)
		defer cancel()

		var err error
		archive, err = p.client.DownloadArchive(dlCtx, fileID)
		return err
	}); err != nil {
		return nil, err
	}

	if err := p.runStep(ctx, StepIDExtract, func(ctx context.Context) error {
		var err error
		raw, err = exporter.ExtractCSV(archive)
		return err
	}); err != nil {
		return nil, err
	}

	if err := p.runStep(ctx, StepIDFilter, func(ctx context.Context) error {
		parsed, err := exporter.ParseTable(raw)
		if err != nil {
			return err
		}
		result.RowsParsed = len(parsed)
		rows = exporter.DropMetadataRows(parsed)
		result.RowsWritten = len(rows)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := p.runStep(ctx, StepIDWrite, func(ctx context.Context) error {
		return exporter.WriteTable(p.cfg.OutputFile, rows)
	}); err != nil {
		return nil, err
	}

	result.Duration = time.Since(started)
	p.logger.InfoContext(ctx, "Export run complete",
		slog.String("run_id", p.runID),
		slog.String("output_file", result.OutputFile),
		slog.Int("rows_parsed", result.RowsParsed),
		slog.Int("rows_written", result.RowsWritten),
		slog.Duration("duration", result.Duration))

	return result, nil
}

// runStep executes one step inside its own span and records the state transition
func (p *Pipeline) runStep(ctx context.Context, stepID string, fn func(ctx context.Context) error) error {
	step := p.Step(stepID)

	ctx, span := p.tracer.Start(ctx, "export.step."+stepID,
		trace.WithAttributes(attribute.String("step.id", stepID)))
	defer span.End()

	step.Start()
	p.logger.InfoContext(ctx, "Step started",
		slog.String("step", step.ID),
		slog.String("name", step.Name))

	if err := fn(ctx); err != nil {
		step.Fail(err)
		infrastructure.RecordError(ctx, err)
		p.logger.ErrorContext(ctx, "Step failed",
			slog.String("step", step.ID),
			slog.String("error", err.Error()),
			slog.Duration("duration", step.Duration()))
		return err
	}

	step.Complete("")
	p.logger.InfoContext(ctx, "Step completed",
		slog.String("step", step.ID),
		slog.Duration("duration", step.Duration()))
	return nil
}
