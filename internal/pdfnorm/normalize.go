package pdfnorm

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"

	"ballotforge/internal/config"
	"ballotforge/internal/services"
)

var commandContext = exec.CommandContext

// Normalizer converts ballots for print.
type Normalizer struct {
	binary      string
	concurrency int
	grayscale   func(templateID string) bool
}

// Option customizes a Normalizer.
type Option func(*Normalizer)

// WithBinary overrides the Ghostscript executable.
func WithBinary(binary string) Option {
	return func(n *Normalizer) {
		if strings.TrimSpace(binary) != "" {
			n.binary = binary
		}
	}
}

// WithConcurrency caps simultaneous Ghostscript processes.
func WithConcurrency(limit int) Option {
	return func(n *Normalizer) {
		if limit > 0 {
			n.concurrency = limit
		}
	}
}

// WithGrayscaleTemplates sets the templates that need conversion.
func WithGrayscaleTemplates(templates ...string) Option {
	return func(n *Normalizer) {
		n.grayscale = func(templateID string) bool {
			for _, t := range templates {
				if strings.EqualFold(t, templateID) {
					return true
				}
			}
			return false
		}
	}
}

// New constructs a Normalizer with no grayscale templates.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		binary:      "gs",
		concurrency: 1,
		grayscale:   func(string) bool { return false },
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NewFromConfig wires the export config section.
func NewFromConfig(cfg *config.Config) *Normalizer {
	return New(
		WithBinary(cfg.Export.GhostscriptBinary),
		WithConcurrency(cfg.Export.Concurrency),
		WithGrayscaleTemplates(cfg.Export.GrayscaleTemplates...),
	)
}

// RequiresGrayscale reports whether templateID ballots are converted.
func (n *Normalizer) RequiresGrayscale(templateID string) bool {
	return n.grayscale(templateID)
}

// NormalizeAll returns one print-ready document per input, in input order.
func (n *Normalizer) NormalizeAll(ctx context.Context, templateID string, docs [][]byte) ([][]byte, error) {
	out := make([][]byte, len(docs))
	if !n.grayscale(templateID) {
		copy(out, docs)
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			converted, err := n.toGrayscale(gctx, doc)
			if err != nil {
				return fmt.Errorf("document %d: %w", i, err)
			}
			out[i] = converted
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (n *Normalizer) toGrayscale(ctx context.Context, doc []byte) ([]byte, error) {
	args := []string{
		"-q",
		"-dNOPAUSE",
		"-dBATCH",
		"-dSAFER",
		"-sDEVICE=pdfwrite",
		"-sColorConversionStrategy=Gray",
		"-dProcessColorModel=/DeviceGray",
		"-sOutputFile=-",
		"-",
	}
	cmd := commandContext(ctx, n.binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(doc)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = "ghostscript failed"
		}
		return nil, services.Wrap(services.ErrExternalTool, "pdfnorm", "grayscale", detail, err)
	}
	if stdout.Len() == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "pdfnorm", "grayscale", "ghostscript produced no output", nil)
	}
	return stdout.Bytes(), nil
}
