package testdeck

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"ballotforge/internal/bundle"
	"ballotforge/internal/election"
	"ballotforge/internal/filestore"
	"ballotforge/internal/logging"
	"ballotforge/internal/render"
	"ballotforge/internal/services"
	"ballotforge/internal/stageexec"
	"ballotforge/internal/store"
	"ballotforge/internal/tasks"
	"ballotforge/internal/uistrings"
)

// Deps are the collaborators of a test deck run.
type Deps struct {
	Store      store.Elections
	Translator uistrings.Translator
	Renderer   render.Renderer
	Files      filestore.Writer
	Logger     *slog.Logger
}

// Generator runs generate_test_decks tasks.
type Generator struct {
	deps   Deps
	logger *slog.Logger
}

// New returns a generator.
func New(deps Deps) *Generator {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	return &Generator{deps: deps, logger: logging.NewComponentLogger(deps.Logger, "testdeck")}
}

// Run renders the deck, computes its tally, and records both artifact URLs.
func (g *Generator) Run(ctx context.Context, p tasks.GenerateTestDecks) error {
	logger := g.logger.With(logging.String(logging.FieldElectionID, p.ElectionID))
	steps := stageexec.New(logger, "testdeck")

	var (
		rec      *election.Record
		catalog  uistrings.Catalog
		props    []render.Prop
		result   *render.Result
		decksURL string
		tallyURL string
	)
	if err := steps.Step(ctx, "load_election", func(ctx context.Context) error {
		var err error
		rec, err = g.deps.Store.GetElection(ctx, p.ElectionID)
		if err != nil {
			return fmt.Errorf("load election %s: %w", p.ElectionID, err)
		}
		if rec == nil {
			return services.Wrap(services.ErrNotFound, "testdeck", "load election",
				fmt.Sprintf("election %q not found", p.ElectionID), nil)
		}
		props = Props(rec)
		if len(props) == 0 {
			return services.Wrap(services.ErrValidation, "testdeck", "load election",
				fmt.Sprintf("election %q has no ballot styles", p.ElectionID), nil)
		}
		return nil
	}); err != nil {
		return err
	}
	if err := steps.Step(ctx, "build_ui_strings", func(ctx context.Context) error {
		configs := rec.Settings.LanguageConfigs
		if len(configs) == 0 {
			configs = election.DefaultLanguageConfigs()
		}
		var err error
		catalog, err = uistrings.ForElection(ctx, g.deps.Translator, rec.Settings.BallotTemplateID, &rec.Election, configs[:1])
		return err
	}); err != nil {
		return err
	}
	if err := steps.Step(ctx, "render_decks", func(ctx context.Context) error {
		var err error
		result, err = g.deps.Renderer.Render(ctx, render.Request{
			TemplateID: rec.Settings.BallotTemplateID,
			Election:   rec.Election,
			Props:      props,
			UIStrings:  catalog,
		})
		if err != nil {
			return err
		}
		if len(result.Documents) != len(props) {
			return services.Wrap(services.ErrExternalTool, "testdeck", "render",
				fmt.Sprintf("renderer returned %d documents for %d props", len(result.Documents), len(props)), nil)
		}
		return nil
	}); err != nil {
		return err
	}
	if err := steps.Step(ctx, "upload_decks", func(ctx context.Context) error {
		report := Tally(rec, props)
		report.BallotHash = result.ElectionDefinition.Hash
		tally, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode tally report: %w", err)
		}

		deck := bundle.New()
		for k, prop := range props {
			if err := deck.Add(deckName(k, prop), result.Documents[k]); err != nil {
				return err
			}
		}
		if err := deck.Add("tally-report.json", tally); err != nil {
			return err
		}
		data, err := deck.Bytes()
		if err != nil {
			return err
		}

		if decksURL, err = g.write(ctx, p.ElectionID, bundle.HashedName("test-decks", ".zip", data), data); err != nil {
			return err
		}
		tallyURL, err = g.write(ctx, p.ElectionID, bundle.HashedName("tally-report", ".json", tally), tally)
		return err
	}); err != nil {
		return err
	}
	if err := steps.Step(ctx, "record_urls", func(ctx context.Context) error {
		return g.deps.Store.SetTestDecksURL(ctx, p.ElectionID, decksURL, tallyURL)
	}); err != nil {
		return err
	}

	logger.Info(
		"test decks generated",
		logging.String(logging.FieldEventType, "test_decks_complete"),
		logging.String("decks_url", decksURL),
		logging.String("tally_url", tallyURL),
		logging.Int("ballot_count", len(props)),
	)
	return nil
}

func (g *Generator) write(ctx context.Context, electionID, name string, data []byte) (string, error) {
	name = electionID + "/" + name
	url, err := g.deps.Files.WriteFile(ctx, name, data)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "testdeck", "upload", name, err)
	}
	return url, nil
}
