package jobs

import (
	"context"
	"log/slog"

	"ballotforge/internal/config"
	"ballotforge/internal/export"
	"ballotforge/internal/filestore"
	"ballotforge/internal/pdfnorm"
	"ballotforge/internal/qabuild"
	"ballotforge/internal/render"
	"ballotforge/internal/speech"
	"ballotforge/internal/store"
	"ballotforge/internal/tasks"
	"ballotforge/internal/testdeck"
	"ballotforge/internal/translation"
)

// Handlers routes each task kind to its pipeline.
type Handlers struct {
	export    *export.Exporter
	testDecks *testdeck.Generator
}

var _ tasks.Handlers = (*Handlers)(nil)

// New pairs the two pipelines.
func New(exporter *export.Exporter, generator *testdeck.Generator) *Handlers {
	return &Handlers{export: exporter, testDecks: generator}
}

// FromConfig constructs every collaborator from cfg. The store doubles as
// the translation and speech cache.
func FromConfig(cfg *config.Config, st store.Store, logger *slog.Logger) *Handlers {
	translator := translation.New(translation.Vendored(), st, translation.NewCloudClient(cfg.Translation))
	synthesizer := speech.New(st, speech.NewCloudClient(cfg.Speech), cfg.Speech.MaxCacheableBytes)
	renderer := render.NewHTTPRenderer(cfg.Renderer)
	files := filestore.NewFromConfig(cfg)

	return New(
		export.New(export.Deps{
			Store:       st,
			Translator:  translator,
			Synthesizer: synthesizer,
			Renderer:    renderer,
			Normalizer:  pdfnorm.NewFromConfig(cfg),
			Files:       files,
			QABuild:     qabuild.NewTrigger(cfg),
			Logger:      logger,
		}),
		testdeck.New(testdeck.Deps{
			Store:      st,
			Translator: translator,
			Renderer:   renderer,
			Files:      files,
			Logger:     logger,
		}),
	)
}

// GenerateElectionPackage runs the export pipeline.
func (h *Handlers) GenerateElectionPackage(ctx context.Context, p tasks.GenerateElectionPackage) error {
	return h.export.Run(ctx, p)
}

// GenerateTestDecks runs the test deck pipeline.
func (h *Handlers) GenerateTestDecks(ctx context.Context, p tasks.GenerateTestDecks) error {
	return h.testDecks.Run(ctx, p)
}
