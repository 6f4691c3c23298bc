package compat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	core "charm.land/fantasy"

	llmtypes "chorus/pkg/llm/types"
)

type fakeLanguageModelProvider struct {
	model     core.LanguageModel
	err       error
	lastID    string
	callCount int
}

func (f *fakeLanguageModelProvider) LanguageModel(_ context.Context, modelID string) (core.LanguageModel, error) {
	f.callCount++
	f.lastID = modelID
	if f.err != nil {
		return nil, f.err
	}

	return f.model, nil
}

type fakeLanguageModel struct{}

func (f *fakeLanguageModel) Generate(context.Context, core.Call) (*core.Response, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeLanguageModel) Stream(context.Context, core.Call) (core.StreamResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeLanguageModel) GenerateObject(context.Context, core.ObjectCall) (*core.ObjectResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeLanguageModel) StreamObject(context.Context, core.ObjectCall) (core.ObjectStreamResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeLanguageModel) Provider() string { return "openai" }
func (f *fakeLanguageModel) Model() string    { return "test-model" }

func textResult(text string) *core.AgentResult {
	return &core.AgentResult{
		Response: core.Response{
			Content: core.ResponseContent{core.TextContent{Text: text}},
		},
	}
}

func newFakeClient(generate func(context.Context, core.LanguageModel, core.AgentCall) (*core.AgentResult, error)) (*Client, *fakeLanguageModelProvider) {
	provider := &fakeLanguageModelProvider{model: &fakeLanguageModel{}}
	client := &Client{
		vendorName: "openrouter",
		provider:   provider,
		modelID:    "test-model",
		generate:   generate,
	}

	return client, provider
}

func TestNewValidatesInputs(t *testing.T) {
	t.Parallel()

	if _, err := New("openrouter", "https://example.test/v1", "", "m", 0); err == nil {
		t.Fatal("expected missing api key error")
	}
	if _, err := New("openrouter", "", "sk-test", "m", 0); err == nil {
		t.Fatal("expected missing base url error")
	}
	if _, err := New("openrouter", "https://example.test/v1", "sk-test", "", 0); err == nil {
		t.Fatal("expected missing model error")
	}
	if _, err := New("", "https://example.test/v1", "sk-test", "m", 0); err == nil {
		t.Fatal("expected missing vendor name error")
	}
}

func TestGenerateTextCarriesSystemHistory(t *testing.T) {
	t.Parallel()

	var captured core.AgentCall
	client, provider := newFakeClient(func(_ context.Context, _ core.LanguageModel, call core.AgentCall) (*core.AgentResult, error) {
		captured = call
		return textResult("answer"), nil
	})

	text, err := client.GenerateText(context.Background(), llmtypes.Prompt{
		Persona: "You are Aria.",
		System:  "Answer briefly.",
		User:    "hello",
	})
	if err != nil {
		t.Fatalf("GenerateText error: %v", err)
	}
	if text != "answer" {
		t.Fatalf("text = %q", text)
	}
	if provider.lastID != "test-model" {
		t.Fatalf("model id = %q", provider.lastID)
	}
	if captured.Prompt != "hello" {
		t.Fatalf("prompt = %q", captured.Prompt)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Role != core.MessageRoleSystem {
		t.Fatalf("messages = %+v, want one system message", captured.Messages)
	}
}

func TestGenerateTextRequiresUserContent(t *testing.T) {
	t.Parallel()

	client, _ := newFakeClient(func(context.Context, core.LanguageModel, core.AgentCall) (*core.AgentResult, error) {
		t.Fatal("generate should not be called")
		return nil, nil
	})

	if _, err := client.GenerateText(context.Background(), llmtypes.Prompt{User: "   "}); err == nil {
		t.Fatal("expected error for blank user content")
	}
}

func TestGenerateFromTurnsUsesTrailingUserTurnAsPrompt(t *testing.T) {
	t.Parallel()

	var captured core.AgentCall
	client, _ := newFakeClient(func(_ context.Context, _ core.LanguageModel, call core.AgentCall) (*core.AgentResult, error) {
		captured = call
		return textResult("reply"), nil
	})

	turns := []llmtypes.Turn{
		{Role: llmtypes.RoleUser, Content: "Mika: hello"},
		{Role: llmtypes.RoleAssistant, Content: "hi there"},
		{Role: llmtypes.RoleUser, Content: "Mika: how are you?"},
	}

	if _, err := client.GenerateFromTurns(context.Background(), "You are Aria.", turns); err != nil {
		t.Fatalf("GenerateFromTurns error: %v", err)
	}
	if captured.Prompt != "Mika: how are you?" {
		t.Fatalf("prompt = %q", captured.Prompt)
	}
	// System persona + two history turns.
	if len(captured.Messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(captured.Messages))
	}
	if captured.Messages[2].Role != core.MessageRoleAssistant {
		t.Fatalf("last history role = %q, want assistant", captured.Messages[2].Role)
	}
}

func TestGenerateFromTurnsTrailingAssistantGetsContinuationPrompt(t *testing.T) {
	t.Parallel()

	var captured core.AgentCall
	client, _ := newFakeClient(func(_ context.Context, _ core.LanguageModel, call core.AgentCall) (*core.AgentResult, error) {
		captured = call
		return textResult("reply"), nil
	})

	turns := []llmtypes.Turn{
		{Role: llmtypes.RoleAssistant, Content: "I was saying..."},
	}

	if _, err := client.GenerateFromTurns(context.Background(), "", turns); err != nil {
		t.Fatalf("GenerateFromTurns error: %v", err)
	}
	if captured.Prompt != "Continue the conversation." {
		t.Fatalf("prompt = %q", captured.Prompt)
	}
}

func TestRunFailsOnEmptyResponse(t *testing.T) {
	t.Parallel()

	client, _ := newFakeClient(func(context.Context, core.LanguageModel, core.AgentCall) (*core.AgentResult, error) {
		return textResult("   "), nil
	})

	if _, err := client.GenerateText(context.Background(), llmtypes.Prompt{User: "hello"}); err == nil {
		t.Fatal("expected error for empty model output")
	}
}

func TestListModels(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("path = %q, want /models", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [{"id": "model-a", "name": "Model A"}, {"id": "model-b"}, {"id": ""}]}`))
	}))
	defer server.Close()

	client := &Client{
		vendorName: "openrouter",
		baseURL:    server.URL,
		apiKey:     "sk-test",
		httpClient: server.Client(),
	}

	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels error: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("models = %+v, want 2", models)
	}
	if models[0] != (llmtypes.AvailableModel{ID: "model-a", Name: "Model A"}) {
		t.Fatalf("models[0] = %+v", models[0])
	}
	if models[1].Name != "model-b" {
		t.Fatalf("models[1] = %+v, want name fallback to id", models[1])
	}
}

func TestListModelsSurfacesHTTPFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := &Client{
		vendorName: "openrouter",
		baseURL:    server.URL,
		apiKey:     "sk-bad",
		httpClient: server.Client(),
	}

	if _, err := client.ListModels(context.Background()); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}
