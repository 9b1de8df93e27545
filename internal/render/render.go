package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ballotforge/internal/config"
	"ballotforge/internal/election"
	"ballotforge/internal/services"
	"ballotforge/internal/services/jsonapi"
	"ballotforge/internal/uistrings"
)

// BallotType distinguishes in-person and mailed ballots.
type BallotType string

const (
	BallotTypePrecinct BallotType = "precinct"
	BallotTypeAbsentee BallotType = "absentee"
)

// BallotTypes lists every ballot type in render order.
func BallotTypes() []BallotType {
	return []BallotType{BallotTypePrecinct, BallotTypeAbsentee}
}

// BallotMode selects the watermark and intended use of a ballot.
type BallotMode string

const (
	BallotModeOfficial BallotMode = "official"
	BallotModeTest     BallotMode = "test"
	BallotModeSample   BallotMode = "sample"
)

// BallotModes lists every ballot mode in render order.
func BallotModes() []BallotMode {
	return []BallotMode{BallotModeOfficial, BallotModeTest, BallotModeSample}
}

// Overrides are the precinct split header variations.
type Overrides struct {
	ElectionTitle         string `json:"electionTitle,omitempty"`
	ElectionSeal          string `json:"electionSeal,omitempty"`
	ClerkSignatureImage   string `json:"clerkSignatureImage,omitempty"`
	ClerkSignatureCaption string `json:"clerkSignatureCaption,omitempty"`
}

// IsZero reports whether no override is set.
func (o Overrides) IsZero() bool {
	return o == Overrides{}
}

// OverridesFor returns the header overrides of a style member. Flat
// precincts have none.
func OverridesFor(e *election.Election, m election.Member) Overrides {
	if m.SplitID == "" {
		return Overrides{}
	}
	split, ok := e.Split(m.PrecinctID, m.SplitID)
	if !ok {
		return Overrides{}
	}
	return Overrides{
		ElectionTitle:         split.ElectionTitleOverride,
		ElectionSeal:          split.ElectionSealOverride,
		ClerkSignatureImage:   split.ClerkSignatureImage,
		ClerkSignatureCaption: split.ClerkSignatureCaption,
	}
}

// Prop describes one ballot to render.
type Prop struct {
	BallotStyleID string     `json:"ballotStyleId"`
	PrecinctID    string     `json:"precinctId"`
	SplitID       string     `json:"splitId,omitempty"`
	BallotType    BallotType `json:"ballotType"`
	BallotMode    BallotMode `json:"ballotMode"`
	Languages     []string   `json:"languages"`
	PaperSize     string     `json:"paperSize"`
	Overrides     Overrides  `json:"overrides,omitzero"`
	// Votes pre-marks the ballot: contest id -> option ids. Test decks only.
	Votes map[string][]string `json:"votes,omitempty"`
}

// Request is one logical render call.
type Request struct {
	TemplateID string
	Election   election.Election
	Props      []Prop
	UIStrings  uistrings.Catalog
}

// ElectionDefinition is the canonical election definition produced by the
// layout service alongside the ballots.
type ElectionDefinition struct {
	Data []byte `json:"data"`
	Hash string `json:"hash"`
}

// Result holds one document per prop, in prop order.
type Result struct {
	Documents          [][]byte
	ElectionDefinition ElectionDefinition
}

// Renderer produces ballot PDFs.
type Renderer interface {
	Render(ctx context.Context, req Request) (*Result, error)
}

// HTTPRenderer calls the layout service over HTTP.
type HTTPRenderer struct {
	api         *jsonapi.Client
	baseURL     string
	batchSize   int
	concurrency int
}

// NewHTTPRenderer builds a renderer from the renderer config section.
func NewHTTPRenderer(cfg config.Renderer, opts ...jsonapi.Option) *HTTPRenderer {
	return &HTTPRenderer{
		api:         jsonapi.New("renderer", time.Duration(cfg.TimeoutSeconds)*time.Second, opts...),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		batchSize:   max(cfg.BatchSize, 1),
		concurrency: max(cfg.Concurrency, 1),
	}
}

type wireRequest struct {
	TemplateID string            `json:"templateId"`
	Election   election.Election `json:"election"`
	Props      []Prop            `json:"props"`
	UIStrings  uistrings.Catalog `json:"uiStrings"`
}

type wireResponse struct {
	Documents          [][]byte           `json:"documents"`
	ElectionDefinition ElectionDefinition `json:"electionDefinition"`
}

// Render splits req.Props into batches and reassembles the documents in order.
func (r *HTTPRenderer) Render(ctx context.Context, req Request) (*Result, error) {
	if len(req.Props) == 0 {
		return nil, services.Wrap(services.ErrValidation, "renderer", "render", "no ballots to render", nil)
	}

	batches := (len(req.Props) + r.batchSize - 1) / r.batchSize
	responses := make([]wireResponse, batches)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for b := 0; b < batches; b++ {
		start := b * r.batchSize
		end := min(start+r.batchSize, len(req.Props))
		g.Go(func() error {
			var resp wireResponse
			err := r.api.PostJSON(gctx, r.baseURL+"/render", nil, wireRequest{
				TemplateID: req.TemplateID,
				Election:   req.Election,
				Props:      req.Props[start:end],
				UIStrings:  req.UIStrings,
			}, &resp)
			if err != nil {
				return fmt.Errorf("render batch %d/%d: %w", b+1, batches, err)
			}
			if len(resp.Documents) != end-start {
				return services.Wrap(services.ErrExternalTool, "renderer", "render",
					fmt.Sprintf("batch %d returned %d documents for %d props", b+1, len(resp.Documents), end-start), nil)
			}
			responses[b] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		Documents:          make([][]byte, 0, len(req.Props)),
		ElectionDefinition: responses[0].ElectionDefinition,
	}
	for b, resp := range responses {
		if resp.ElectionDefinition.Hash != result.ElectionDefinition.Hash {
			return nil, services.Wrap(services.ErrExternalTool, "renderer", "render",
				fmt.Sprintf("batch %d election hash %q differs from %q", b+1, resp.ElectionDefinition.Hash, result.ElectionDefinition.Hash), nil)
		}
		result.Documents = append(result.Documents, resp.Documents...)
	}
	return result, nil
}
