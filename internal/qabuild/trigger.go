package qabuild

import (
	"context"
	"strings"
	"time"

	"ballotforge/internal/config"
	"ballotforge/internal/services/jsonapi"
)

const userAgent = "Ballotforge-Go/0.1.0"

// Build identifies the package the QA build should use.
type Build struct {
	ElectionID string `json:"electionId"`
	PackageURL string `json:"packageUrl"`
	BallotHash string `json:"ballotHash"`
}

// Trigger starts QA builds.
type Trigger interface {
	TriggerBuild(ctx context.Context, build Build) error
	Enabled() bool
}

// NewTrigger builds a webhook trigger when configured, else a noop.
func NewTrigger(cfg *config.Config, opts ...jsonapi.Option) Trigger {
	endpoint := strings.TrimSpace(cfg.QABuild.WebhookURL)
	if endpoint == "" {
		return noopTrigger{}
	}
	timeout := time.Duration(cfg.QABuild.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	// QA builds are best effort: a single attempt.
	opts = append([]jsonapi.Option{jsonapi.WithRetryAttempts(1)}, opts...)
	return &webhookTrigger{
		endpoint: endpoint,
		token:    strings.TrimSpace(cfg.QABuild.Token),
		api:      jsonapi.New("qa build", timeout, opts...),
	}
}

type webhookTrigger struct {
	endpoint string
	token    string
	api      *jsonapi.Client
}

func (w *webhookTrigger) Enabled() bool { return true }

func (w *webhookTrigger) TriggerBuild(ctx context.Context, build Build) error {
	headers := map[string]string{"User-Agent": userAgent}
	if w.token != "" {
		headers["Authorization"] = "Bearer " + w.token
	}
	return w.api.PostJSON(ctx, w.endpoint, headers, build, nil)
}

type noopTrigger struct{}

func (noopTrigger) Enabled() bool                             { return false }
func (noopTrigger) TriggerBuild(context.Context, Build) error { return nil }
