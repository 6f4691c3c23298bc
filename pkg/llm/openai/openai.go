// Package openai implements the model client contract directly against the
// OpenAI Responses API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chorus/pkg/config"
	llmtypes "chorus/pkg/llm/types"

	osdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

type Client struct {
	client         osdk.Client
	model          string
	requestTimeout time.Duration
}

func New(cfg config.OpenAIVendorConfig, apiKey, model string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("openai model is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if organization := strings.TrimSpace(cfg.Organization); organization != "" {
		opts = append(opts, option.WithOrganization(organization))
	}
	if project := strings.TrimSpace(cfg.Project); project != "" {
		opts = append(opts, option.WithProject(project))
	}

	requestTimeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if requestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(requestTimeout))
	}

	return &Client{
		client:         osdk.NewClient(opts...),
		model:          model,
		requestTimeout: requestTimeout,
	}, nil
}

func (c *Client) GenerateText(ctx context.Context, prompt llmtypes.Prompt) (string, error) {
	return c.respond(ctx, "generate_text", instructions(prompt.Persona, prompt.System), prompt.User)
}

func (c *Client) GenerateFromTurns(ctx context.Context, persona string, turns []llmtypes.Turn) (string, error) {
	if len(turns) == 0 {
		return "", errors.New("at least one turn is required")
	}

	system, input := flattenTurns(turns)

	return c.respond(ctx, "generate_from_turns", instructions(persona, system), input)
}

func (c *Client) GenerateDocument(ctx context.Context, title, background string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errors.New("document title is required")
	}

	system := "Write a complete, well-structured document for the given title. " +
		"Use plain prose with short paragraphs."
	user := "Title: " + title
	if background = strings.TrimSpace(background); background != "" {
		user += "\n\nBackground:\n" + background
	}

	return c.respond(ctx, "generate_document", system, user)
}

func (c *Client) ListModels(ctx context.Context) ([]llmtypes.AvailableModel, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	log := vendorLogger().With("operation", "list_models")
	startedAt := time.Now()
	log.Debug("vendor request started")

	page, err := c.client.Models.List(ctx)
	if err != nil {
		log.Debug("vendor request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
		return nil, fmt.Errorf("list models failed: %w", err)
	}

	models := make([]llmtypes.AvailableModel, 0, len(page.Data))
	for _, model := range page.Data {
		id := strings.TrimSpace(model.ID)
		if id == "" {
			continue
		}
		models = append(models, llmtypes.AvailableModel{ID: id, Name: id})
	}
	log.Debug("vendor request completed", "duration_ms", time.Since(startedAt).Milliseconds(), "model_count", len(models))

	return models, nil
}

func (c *Client) respond(ctx context.Context, operation, system, user string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	log := vendorLogger().With("operation", operation)
	startedAt := time.Now()

	user = strings.TrimSpace(user)
	if user == "" {
		return "", errors.New("user content is required")
	}

	log.Debug("vendor request started", "model", c.model, "prompt_length", len(user))

	params := responses.ResponseNewParams{
		Model: c.model,
		Input: responses.ResponseNewParamsInputUnion{OfString: osdk.String(user)},
	}
	if system = strings.TrimSpace(system); system != "" {
		params.Instructions = osdk.String(system)
	}

	response, err := c.client.Responses.New(ctx, params)
	if err != nil {
		log.Debug("vendor request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
		return "", fmt.Errorf("generation failed: %w", err)
	}

	text := strings.TrimSpace(response.OutputText())
	if text == "" {
		log.Debug("vendor request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", "no output text")
		return "", errors.New("generation succeeded but returned no text")
	}
	log.Debug("vendor request completed", "duration_ms", time.Since(startedAt).Milliseconds(), "response_length", len(text))

	return text, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.requestTimeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, c.requestTimeout)
}

func vendorLogger() *slog.Logger {
	return slog.Default().With("component", "llm.openai")
}

// instructions joins the optional persona layer and the system prompt.
func instructions(persona, system string) string {
	persona = strings.TrimSpace(persona)
	system = strings.TrimSpace(system)
	switch {
	case persona == "":
		return system
	case system == "":
		return persona
	default:
		return persona + "\n\n" + system
	}
}

// flattenTurns renders role-tagged turns into a single input transcript.
// System turns are lifted into the instruction string instead.
func flattenTurns(turns []llmtypes.Turn) (system string, input string) {
	systemParts := make([]string, 0, 1)
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		if turn.Role == llmtypes.RoleSystem {
			systemParts = append(systemParts, content)
			continue
		}
		lines = append(lines, string(turn.Role)+": "+content)
	}

	return strings.Join(systemParts, "\n\n"), strings.Join(lines, "\n")
}
