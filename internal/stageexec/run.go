package stageexec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"ballotforge/internal/logging"
	"ballotforge/internal/services"
	"ballotforge/internal/tracing"
)

// Runner executes the named steps of one handler run with consistent logs
// and spans.
type Runner struct {
	logger *slog.Logger
	prefix string
}

// New returns a runner whose span names are prefixed by handler.
func New(logger *slog.Logger, handler string) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{logger: logger, prefix: handler}
}

// Step runs fn inside a span named "<handler>.<name>". The step name is
// attached to the context so nested logs carry it.
func (r *Runner) Step(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	stageCtx := services.WithStage(ctx, name)
	stageCtx, span := tracing.StartSpan(stageCtx, r.prefix+"."+name)
	stageLogger := logging.WithContext(stageCtx, r.logger)

	stageLogger.Debug(
		"step started",
		logging.String(logging.FieldEventType, "step_start"),
		logging.String("step_label", Label(name)),
	)
	start := time.Now()
	err := fn(stageCtx)
	span.End(err)
	if err != nil {
		stageLogger.Error(
			"step failed",
			logging.String(logging.FieldEventType, "step_failure"),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Duration("elapsed", time.Since(start)),
			logging.Error(err),
		)
		return fmt.Errorf("%s: %w", name, err)
	}
	stageLogger.Info(
		"step completed",
		logging.String(logging.FieldEventType, "step_complete"),
		logging.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Label turns "normalize_pdfs" into "Normalize Pdfs".
func Label(name string) string {
	parts := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, part := range parts {
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
