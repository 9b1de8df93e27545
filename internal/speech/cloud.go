package speech

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ballotforge/internal/config"
	"ballotforge/internal/services"
	"ballotforge/internal/services/jsonapi"
)

// Client synthesizes a batch of texts in one language, returning one clip
// per input in order.
type Client interface {
	Synthesize(ctx context.Context, texts []string, language string) ([][]byte, error)
}

// CloudClient talks to the batch speech synthesis endpoint.
type CloudClient struct {
	api     *jsonapi.Client
	baseURL string
	apiKey  string
	voice   string
}

// NewCloudClient builds a client from the speech config section.
func NewCloudClient(cfg config.Speech, opts ...jsonapi.Option) *CloudClient {
	return &CloudClient{
		api:     jsonapi.New("speech", time.Duration(cfg.TimeoutSeconds)*time.Second, opts...),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		voice:   cfg.Voice,
	}
}

type synthesizeRequest struct {
	Inputs   []string `json:"inputs"`
	Language string   `json:"language"`
	Voice    string   `json:"voice"`
	Encoding string   `json:"audioEncoding"`
}

type synthesizeResponse struct {
	AudioContents [][]byte `json:"audioContents"`
}

// Synthesize issues exactly one API request for texts.
func (c *CloudClient) Synthesize(ctx context.Context, texts []string, language string) ([][]byte, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if c.apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "speech", "synthesize", "speech.api_key is not set", nil)
	}
	var resp synthesizeResponse
	err := c.api.PostJSON(ctx, c.baseURL+"/text:synthesizeBatch",
		map[string]string{"X-Goog-Api-Key": c.apiKey},
		synthesizeRequest{Inputs: texts, Language: language, Voice: c.voice, Encoding: "MP3"},
		&resp)
	if err != nil {
		return nil, err
	}
	if got := len(resp.AudioContents); got != len(texts) {
		return nil, services.Wrap(services.ErrExternalTool, "speech", "synthesize",
			fmt.Sprintf("expected %d clips in %s, got %d", len(texts), language, got), nil)
	}
	return resp.AudioContents, nil
}
