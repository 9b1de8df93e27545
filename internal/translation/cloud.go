package translation

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"ballotforge/internal/config"
	"ballotforge/internal/services"
	"ballotforge/internal/services/jsonapi"
)

// Client translates a batch of English texts into one target language,
// returning one result per input in order.
type Client interface {
	Translate(ctx context.Context, texts []string, target string) ([]string, error)
}

// CloudClient talks to a Google Translate v2 compatible endpoint.
type CloudClient struct {
	api     *jsonapi.Client
	baseURL string
	apiKey  string
}

// NewCloudClient builds a client from the translation config section.
func NewCloudClient(cfg config.Translation, opts ...jsonapi.Option) *CloudClient {
	return &CloudClient{
		api:     jsonapi.New("translation", time.Duration(cfg.TimeoutSeconds)*time.Second, opts...),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
	}
}

type translateRequest struct {
	Q      []string `json:"q"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Format string   `json:"format"`
}

type translateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

// Translate issues exactly one API request for texts.
func (c *CloudClient) Translate(ctx context.Context, texts []string, target string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if c.apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "translation", "translate", "translation.api_key is not set", nil)
	}
	endpoint := c.baseURL + "/language/translate/v2?key=" + url.QueryEscape(c.apiKey)
	var resp translateResponse
	err := c.api.PostJSON(ctx, endpoint, nil, translateRequest{
		Q:      texts,
		Source: "en",
		Target: CloudCode(target),
		Format: "text",
	}, &resp)
	if err != nil {
		return nil, err
	}
	if got := len(resp.Data.Translations); got != len(texts) {
		return nil, services.Wrap(services.ErrExternalTool, "translation", "translate",
			fmt.Sprintf("expected %d translations into %s, got %d", len(texts), target, got), nil)
	}
	out := make([]string, len(texts))
	for i, tr := range resp.Data.Translations {
		out[i] = tr.TranslatedText
	}
	return out, nil
}
