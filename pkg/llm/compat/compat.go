// Package compat implements the model client contract for vendors exposing
// an OpenAI-compatible endpoint (OpenRouter, Gemini), built on fantasy's
// openai provider.
package compat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	core "charm.land/fantasy"
	provideropenai "charm.land/fantasy/providers/openai"

	llmtypes "chorus/pkg/llm/types"
)

type languageModelProvider interface {
	LanguageModel(ctx context.Context, modelID string) (core.LanguageModel, error)
}

// listHTTPClient is shared by all compat clients so model listing reuses one
// pooled connection source under concurrent load.
var listHTTPClient = &http.Client{Timeout: 30 * time.Second}

type Client struct {
	vendorName     string
	provider       languageModelProvider
	baseURL        string
	apiKey         string
	modelID        string
	requestTimeout time.Duration
	generate       func(context.Context, core.LanguageModel, core.AgentCall) (*core.AgentResult, error)
	httpClient     *http.Client
}

func New(vendorName, baseURL, apiKey, modelID string, requestTimeout time.Duration) (*Client, error) {
	vendorName = strings.TrimSpace(vendorName)
	if vendorName == "" {
		return nil, errors.New("vendor name is required")
	}

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%s api key is required", vendorName)
	}

	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%s base url is required", vendorName)
	}

	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return nil, fmt.Errorf("%s model is required", vendorName)
	}

	fantasyProvider, err := provideropenai.New(
		provideropenai.WithAPIKey(apiKey),
		provideropenai.WithBaseURL(baseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("initialize %s provider: %w", vendorName, err)
	}

	return &Client{
		vendorName:     vendorName,
		provider:       fantasyProvider,
		baseURL:        baseURL,
		apiKey:         apiKey,
		modelID:        modelID,
		requestTimeout: requestTimeout,
		generate:       generateWithFantasyAgent,
		httpClient:     listHTTPClient,
	}, nil
}

func (c *Client) GenerateText(ctx context.Context, prompt llmtypes.Prompt) (string, error) {
	user := strings.TrimSpace(prompt.User)
	if user == "" {
		return "", errors.New("user content is required")
	}

	var history []core.Message
	if system := joinInstructions(prompt.Persona, prompt.System); system != "" {
		history = append(history, systemMessage(system))
	}

	return c.run(ctx, "generate_text", core.AgentCall{Prompt: user, Messages: history})
}

func (c *Client) GenerateFromTurns(ctx context.Context, persona string, turns []llmtypes.Turn) (string, error) {
	if len(turns) == 0 {
		return "", errors.New("at least one turn is required")
	}

	history := make([]core.Message, 0, len(turns)+1)
	if persona = strings.TrimSpace(persona); persona != "" {
		history = append(history, systemMessage(persona))
	}

	prompt := ""
	for i, turn := range turns {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}

		// The trailing user turn becomes the live prompt; everything
		// before it is history.
		if i == len(turns)-1 && turn.Role == llmtypes.RoleUser {
			prompt = content
			continue
		}

		switch turn.Role {
		case llmtypes.RoleSystem:
			history = append(history, systemMessage(content))
		case llmtypes.RoleAssistant:
			history = append(history, core.Message{
				Role:    core.MessageRoleAssistant,
				Content: []core.MessagePart{core.TextPart{Text: content}},
			})
		default:
			history = append(history, core.NewUserMessage(content))
		}
	}

	if prompt == "" {
		prompt = "Continue the conversation."
	}

	return c.run(ctx, "generate_from_turns", core.AgentCall{Prompt: prompt, Messages: history})
}

func (c *Client) GenerateDocument(ctx context.Context, title, background string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errors.New("document title is required")
	}

	history := []core.Message{systemMessage(
		"Write a complete, well-structured document for the given title. " +
			"Use plain prose with short paragraphs.",
	)}

	prompt := "Title: " + title
	if background = strings.TrimSpace(background); background != "" {
		prompt += "\n\nBackground:\n" + background
	}

	return c.run(ctx, "generate_document", core.AgentCall{Prompt: prompt, Messages: history})
}

// ListModels queries the vendor's OpenAI-compatible /models endpoint.
// Fantasy does not expose model listing, so this goes over plain HTTP with
// the shared pooled client.
func (c *Client) ListModels(ctx context.Context) ([]llmtypes.AvailableModel, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	log := c.logger().With("operation", "list_models")
	startedAt := time.Now()
	log.Debug("vendor request started")

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("build list models request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+c.apiKey)

	response, err := c.httpClient.Do(request)
	if err != nil {
		log.Debug("vendor request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
		return nil, fmt.Errorf("list models failed: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode != http.StatusOK {
		log.Debug("vendor request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "status", response.StatusCode)
		return nil, fmt.Errorf("list models failed: status %d", response.StatusCode)
	}

	var payload struct {
		Data []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode model list: %w", err)
	}

	models := make([]llmtypes.AvailableModel, 0, len(payload.Data))
	for _, entry := range payload.Data {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			continue
		}
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			name = id
		}
		models = append(models, llmtypes.AvailableModel{ID: id, Name: name})
	}
	log.Debug("vendor request completed", "duration_ms", time.Since(startedAt).Milliseconds(), "model_count", len(models))

	return models, nil
}

func (c *Client) run(ctx context.Context, operation string, call core.AgentCall) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	log := c.logger().With("operation", operation)
	startedAt := time.Now()
	log.Debug("vendor request started", "model", c.modelID, "prompt_length", len(call.Prompt))

	languageModel, err := c.provider.LanguageModel(ctx, c.modelID)
	if err != nil {
		log.Debug("vendor request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
		return "", fmt.Errorf("resolve language model: %w", err)
	}

	generate := c.generate
	if generate == nil {
		generate = generateWithFantasyAgent
	}

	result, err := generate(ctx, languageModel, call)
	if err != nil {
		log.Debug("vendor request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
		return "", fmt.Errorf("generation failed: %w", err)
	}

	text := extractText(result.Response.Content)
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

func (c *Client) logger() *slog.Logger {
	return slog.Default().With("component", "llm."+c.vendorName)
}

func systemMessage(content string) core.Message {
	return core.Message{
		Role:    core.MessageRoleSystem,
		Content: []core.MessagePart{core.TextPart{Text: content}},
	}
}

func joinInstructions(persona, system string) string {
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

func extractText(content core.ResponseContent) string {
	lines := make([]string, 0)
	for _, part := range content {
		if part.GetType() != core.ContentTypeText {
			continue
		}

		textPart, ok := core.AsContentType[core.TextContent](part)
		if !ok {
			continue
		}

		line := strings.TrimSpace(textPart.Text)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func generateWithFantasyAgent(ctx context.Context, model core.LanguageModel, call core.AgentCall) (*core.AgentResult, error) {
	runtime := core.NewAgent(model)
	return runtime.Generate(ctx, call)
}
