// Package vertex implements the chat.Provider port against a Vertex AI text
// generation endpoint. The models served there have no native function
// calling, so the tool catalog is rendered into the system prompt and tool
// requests are recovered from the reply text by the parse package.
package vertex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/skylinkair/pilot/pkg/chat"
	"github.com/skylinkair/pilot/pkg/session"
	"github.com/skylinkair/pilot/pkg/tool"
)

// Ensure Builder satisfies the factory contract at compile time.
var _ chat.Builder = (*Builder)(nil)

// Builder wires Vertex-backed providers into the chat factory. Credential
// acquisition (service-account flow, token refresh) stays outside this
// package: callers inject an oauth2.TokenSource.
type Builder struct {
	HTTPClient *http.Client
	Tokens     oauth2.TokenSource
	Catalog    *tool.Catalog
	Logger     *slog.Logger
}

// Name advertises the builder identifier used by the factory.
func (b *Builder) Name() string {
	return "vertex"
}

// NewProvider materializes a Provider configured according to cfg.
func (b *Builder) NewProvider(ctx context.Context, cfg chat.ProviderConfig) (chat.Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.Tokens == nil {
		return nil, errors.New("vertex token source is required")
	}
	if b.Catalog == nil {
		return nil, errors.New("vertex tool catalog is required")
	}

	project := strings.TrimSpace(cfg.Project)
	if project == "" {
		return nil, errors.New("vertex project is required")
	}
	modelName := strings.TrimSpace(cfg.Model)
	if modelName == "" {
		return nil, errors.New("vertex model name is required")
	}
	location := strings.TrimSpace(cfg.Location)
	if location == "" {
		location = defaultLocation
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf(defaultBaseURLFormat, location)
	}

	client := b.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: time.Duration(defaultHTTPTimeout) * time.Second}
	}
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}

	params := GenerationParams{
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}
	if params.MaxOutputTokens <= 0 {
		params.MaxOutputTokens = defaultMaxOutputTokens
	}

	return &Provider{
		client:       client,
		tokens:       b.Tokens,
		endpoint:     baseURL + fmt.Sprintf(predictPathFormat, project, location, modelName),
		params:       params,
		timeout:      cfg.RequestTimeout,
		catalog:      b.Catalog,
		systemPrompt: strings.TrimSpace(cfg.SystemPrompt),
		store:        session.NewStore(cfg.SessionIdleTTL, cfg.MaxSessions),
		logger:       logger,
	}, nil
}
