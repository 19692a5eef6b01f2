package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qxcli/internal/config"
	apperrors "qxcli/internal/errors"
	"qxcli/internal/infrastructure"
	"qxcli/internal/pipeline"
	"qxcli/internal/qualtrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	survey := flag.String("survey", "", "survey identifier (overrides QX_QUALTRICS_SURVEY_ID)")
	out := flag.String("out", "", "output file path, .csv or .xlsx (overrides QX_EXPORT_OUTPUT_FILE)")
	traceExporter := flag.String("trace", "", "trace exporter: stdout | none (default none)")
	flag.Parse()

	// Flags win over both the config file and the environment
	if *survey != "" {
		os.Setenv("QX_QUALTRICS_SURVEY_ID", *survey)
	}
	if *out != "" {
		os.Setenv("QX_EXPORT_OUTPUT_FILE", *out)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	otelCfg := infrastructure.DefaultOTelConfig()
	if *traceExporter != "" {
		otelCfg.TraceExporter = *traceExporter
	}
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		logger.Warn("Failed to initialize tracing, continuing without it",
			slog.String("error", err.Error()))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := providers.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Tracing shutdown failed", slog.String("error", err.Error()))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := qualtrics.NewClient(cfg.Qualtrics,
		qualtrics.WithLogger(logger),
		qualtrics.WithRateLimit(cfg.Export.RequestsPerSec),
		qualtrics.WithHTTPClient(&http.Client{Timeout: cfg.Export.RequestTimeout}))

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if providers != nil {
		opts = append(opts, pipeline.WithTracer(providers.Tracer))
	}
	p := pipeline.New(client, cfg.Export, opts...)

	logger.Info("Starting survey export",
		slog.String("run_id", p.RunID()),
		slog.String("survey_id", cfg.Qualtrics.SurveyID),
		slog.String("datacenter", cfg.Qualtrics.Datacenter),
		slog.String("output_file", cfg.Export.OutputFile))

	result, err := p.Run(ctx)
	if err != nil {
		logger.Error("Export run failed",
			slog.String("run_id", p.RunID()),
			slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %s\n", userMessage(err))
		return 1
	}

	fmt.Printf("Exported %d rows to %s in %s\n",
		result.RowsWritten, result.OutputFile, result.Duration.Round(time.Millisecond))
	return 0
}

// userMessage translates the error taxonomy into a one-line operator message
func userMessage(err error) string {
	switch {
	case apperrors.IsType(err, apperrors.ErrTypeAuth):
		return fmt.Sprintf("the platform rejected the API token: %v", err)
	case apperrors.IsType(err, apperrors.ErrTypeNotFound):
		return fmt.Sprintf("survey or export file not found, check the survey ID: %v", err)
	case apperrors.IsType(err, apperrors.ErrTypeTimeout):
		return fmt.Sprintf("the export did not finish in time: %v", err)
	case apperrors.IsType(err, apperrors.ErrTypeExportFailed):
		return fmt.Sprintf("the platform reported the export as failed: %v", err)
	case apperrors.IsType(err, apperrors.ErrTypeArchive):
		return fmt.Sprintf("the downloaded archive is unusable: %v", err)
	case apperrors.IsType(err, apperrors.ErrTypeParsing):
		return fmt.Sprintf("the exported data could not be parsed: %v", err)
	case apperrors.IsType(err, apperrors.ErrTypeNetwork):
		return fmt.Sprintf("a network request failed: %v", err)
	default:
		return err.Error()
	}
}
