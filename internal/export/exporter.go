package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"ballotforge/internal/bundle"
	"ballotforge/internal/cachetier"
	"ballotforge/internal/election"
	"ballotforge/internal/filestore"
	"ballotforge/internal/logging"
	"ballotforge/internal/qabuild"
	"ballotforge/internal/render"
	"ballotforge/internal/services"
	"ballotforge/internal/stageexec"
	"ballotforge/internal/store"
	"ballotforge/internal/tasks"
	"ballotforge/internal/uistrings"
)

// PackageVersion is written into metadata.json.
const PackageVersion = "1"

// Synthesizer turns text into audio clips in request order.
type Synthesizer interface {
	Synthesize(ctx context.Context, requests []cachetier.Request) ([][]byte, error)
}

// Normalizer prepares rendered PDFs for print in document order.
type Normalizer interface {
	NormalizeAll(ctx context.Context, templateID string, docs [][]byte) ([][]byte, error)
}

// Deps are the collaborators of an export run.
type Deps struct {
	Store       store.Elections
	Translator  uistrings.Translator
	Synthesizer Synthesizer
	Renderer    render.Renderer
	Normalizer  Normalizer
	Files       filestore.Writer
	QABuild     qabuild.Trigger
	Logger      *slog.Logger
	Now         func() time.Time
}

// Exporter runs generate_election_package tasks.
type Exporter struct {
	deps   Deps
	logger *slog.Logger
}

// New returns an exporter. QABuild and Now default to a noop trigger and
// time.Now.
func New(deps Deps) *Exporter {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Exporter{
		deps:   deps,
		logger: logging.NewComponentLogger(deps.Logger, "export"),
	}
}

// run carries the intermediate results between steps.
type run struct {
	payload   tasks.GenerateElectionPackage
	record    *election.Record
	languages []string
	catalog   uistrings.Catalog
	props     []render.Prop
	rendered  *render.Result
	audioIDs  []byte
	audioJSON []byte
	documents [][]byte
	meta      election.ExportMetadata
}

// Run executes every step for p and records the export metadata.
func (x *Exporter) Run(ctx context.Context, p tasks.GenerateElectionPackage) error {
	logger := x.logger.With(logging.String(logging.FieldElectionID, p.ElectionID))
	steps := stageexec.New(logger, "export")
	r := &run{payload: p}

	if err := steps.Step(ctx, "load_election", func(ctx context.Context) error {
		return x.load(ctx, r)
	}); err != nil {
		return err
	}
	if err := steps.Step(ctx, "build_ui_strings", func(ctx context.Context) error {
		return x.buildStrings(ctx, r)
	}); err != nil {
		return err
	}
	if err := steps.Step(ctx, "render_ballots", func(ctx context.Context) error {
		return x.render(ctx, r)
	}); err != nil {
		return err
	}
	if p.ShouldExportAudio {
		if err := steps.Step(ctx, "synthesize_audio", func(ctx context.Context) error {
			return x.synthesize(ctx, r)
		}); err != nil {
			return err
		}
	}
	if err := steps.Step(ctx, "normalize_pdfs", func(ctx context.Context) error {
		return x.normalize(ctx, r)
	}); err != nil {
		return err
	}
	if err := steps.Step(ctx, "upload_artifacts", func(ctx context.Context) error {
		return x.upload(ctx, r)
	}); err != nil {
		return err
	}
	if err := steps.Step(ctx, "record_metadata", func(ctx context.Context) error {
		return x.deps.Store.SetExportMetadata(ctx, p.ElectionID, r.meta)
	}); err != nil {
		return err
	}
	if p.ShouldTriggerQABuild {
		x.triggerQABuild(ctx, logger, r)
	}

	logger.Info(
		"election package exported",
		logging.String(logging.FieldEventType, "export_complete"),
		logging.String("package_url", r.meta.ElectionPackageURL),
		logging.String("ballot_hash", r.meta.BallotHash),
		logging.Int("ballot_count", len(r.documents)),
	)
	return nil
}

func (x *Exporter) load(ctx context.Context, r *run) error {
	rec, err := x.deps.Store.GetElection(ctx, r.payload.ElectionID)
	if err != nil {
		return fmt.Errorf("load election %s: %w", r.payload.ElectionID, err)
	}
	if rec == nil {
		return services.Wrap(services.ErrNotFound, "export", "load election",
			fmt.Sprintf("election %q not found", r.payload.ElectionID), nil)
	}
	if len(rec.BallotStyles) == 0 {
		return services.Wrap(services.ErrValidation, "export", "load election",
			fmt.Sprintf("election %q has no ballot styles", r.payload.ElectionID), nil)
	}
	r.record = rec
	return nil
}

func (x *Exporter) buildStrings(ctx context.Context, r *run) error {
	configs := r.record.Settings.LanguageConfigs
	if len(configs) == 0 {
		configs = election.DefaultLanguageConfigs()
	}
	catalog, err := uistrings.ForElection(ctx, x.deps.Translator, r.record.Settings.BallotTemplateID, &r.record.Election, configs)
	if err != nil {
		return err
	}
	r.languages = uistrings.Languages(configs)
	r.catalog = catalog
	return nil
}

func (x *Exporter) render(ctx context.Context, r *run) error {
	r.props = Props(r.record)
	result, err := x.deps.Renderer.Render(ctx, render.Request{
		TemplateID: r.record.Settings.BallotTemplateID,
		Election:   r.record.Election,
		Props:      r.props,
		UIStrings:  r.catalog,
	})
	if err != nil {
		return err
	}
	if len(result.Documents) != len(r.props) {
		return services.Wrap(services.ErrExternalTool, "export", "render",
			fmt.Sprintf("renderer returned %d documents for %d props", len(result.Documents), len(r.props)), nil)
	}
	r.rendered = result
	return nil
}

func (x *Exporter) synthesize(ctx context.Context, r *run) error {
	plan := planAudio(&r.record.Election, r.catalog, r.languages)
	clips, err := x.deps.Synthesizer.Synthesize(ctx, plan.requests)
	if err != nil {
		return err
	}
	ids, lines, err := plan.encode(clips)
	if err != nil {
		return err
	}
	r.audioIDs, r.audioJSON = ids, lines
	return nil
}

func (x *Exporter) normalize(ctx context.Context, r *run) error {
	docs, err := x.deps.Normalizer.NormalizeAll(ctx, r.record.Settings.BallotTemplateID, r.rendered.Documents)
	if err != nil {
		return err
	}
	r.documents = docs
	return nil
}

func (x *Exporter) upload(ctx context.Context, r *run) error {
	id := r.payload.ElectionID
	byMode := make(map[render.BallotMode]*bundle.Archive, len(render.BallotModes()))
	for _, mode := range render.BallotModes() {
		byMode[mode] = bundle.New()
	}
	for i, prop := range r.props {
		if err := byMode[prop.BallotMode].Add(documentName(prop), r.documents[i]); err != nil {
			return err
		}
	}

	urls := make(map[render.BallotMode]string, len(byMode))
	for _, mode := range render.BallotModes() {
		url, err := x.writeArchive(ctx, id, string(mode)+"-ballots", byMode[mode])
		if err != nil {
			return err
		}
		urls[mode] = url
	}

	pkg, err := x.packageArchive(r)
	if err != nil {
		return err
	}
	packageURL, err := x.writeArchive(ctx, id, "election-package", pkg)
	if err != nil {
		return err
	}

	exportedAt := x.deps.Now().UTC()
	r.meta = election.ExportMetadata{
		ElectionPackageURL: packageURL,
		BallotHash:         r.rendered.ElectionDefinition.Hash,
		OfficialBallotsURL: urls[render.BallotModeOfficial],
		TestBallotsURL:     urls[render.BallotModeTest],
		SampleBallotsURL:   urls[render.BallotModeSample],
		ExportedAt:         &exportedAt,
	}
	return nil
}

type packageMetadata struct {
	Version    string   `json:"version"`
	ElectionID string   `json:"electionId"`
	BallotHash string   `json:"ballotHash"`
	TemplateID string   `json:"ballotTemplateId"`
	Languages  []string `json:"languages"`
	HasAudio   bool     `json:"hasAudio"`
}

// packageArchive holds no timestamps so equal inputs hash equally.
func (x *Exporter) packageArchive(r *run) (*bundle.Archive, error) {
	appStrings, err := json.MarshalIndent(r.catalog, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode app strings: %w", err)
	}
	systemSettings := []byte(r.record.Settings.SystemSettings)
	if len(systemSettings) == 0 {
		systemSettings = []byte("{}")
	}
	metadata, err := json.MarshalIndent(packageMetadata{
		Version:    PackageVersion,
		ElectionID: r.payload.ElectionID,
		BallotHash: r.rendered.ElectionDefinition.Hash,
		TemplateID: r.record.Settings.BallotTemplateID,
		Languages:  r.languages,
		HasAudio:   r.audioIDs != nil,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode package metadata: %w", err)
	}

	pkg := bundle.New()
	files := []bundle.File{
		{Name: "election.json", Data: r.rendered.ElectionDefinition.Data},
		{Name: "systemSettings.json", Data: systemSettings},
		{Name: "appStrings.json", Data: appStrings},
		{Name: "metadata.json", Data: metadata},
	}
	if r.audioIDs != nil {
		files = append(files,
			bundle.File{Name: "audio_ids.json", Data: r.audioIDs},
			bundle.File{Name: "audio_clips.jsonl", Data: r.audioJSON},
		)
	}
	for _, f := range files {
		if err := pkg.Add(f.Name, f.Data); err != nil {
			return nil, err
		}
	}
	return pkg, nil
}

func (x *Exporter) writeArchive(ctx context.Context, electionID, prefix string, archive *bundle.Archive) (string, error) {
	data, err := archive.Bytes()
	if err != nil {
		return "", err
	}
	name := electionID + "/" + bundle.HashedName(prefix, ".zip", data)
	url, err := x.deps.Files.WriteFile(ctx, name, data)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "export", "upload", name, err)
	}
	return url, nil
}

// triggerQABuild never fails the task.
func (x *Exporter) triggerQABuild(ctx context.Context, logger *slog.Logger, r *run) {
	if x.deps.QABuild == nil || !x.deps.QABuild.Enabled() {
		logger.Debug("qa build trigger not configured", logging.String(logging.FieldEventType, "qa_build_skipped"))
		return
	}
	err := x.deps.QABuild.TriggerBuild(ctx, qabuild.Build{
		ElectionID: r.payload.ElectionID,
		PackageURL: r.meta.ElectionPackageURL,
		BallotHash: r.meta.BallotHash,
	})
	if err != nil {
		logging.WarnWithContext(logger, "qa build trigger failed", "qa_build_failed",
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.String(logging.FieldImpact, "export succeeded; QA build must be started manually"),
			logging.Error(err),
		)
		return
	}
	logger.Info("qa build triggered", logging.String(logging.FieldEventType, "qa_build_triggered"))
}
