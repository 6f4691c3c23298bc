// Package llmtest provides a spy model client for analyzer tests: it records
// every call and serves canned responses or errors.
package llmtest

import (
	"context"
	"sync"

	llmtypes "chorus/pkg/llm/types"
)

// Spy implements llm.Client. Zero value is usable; set Response/Err to
// control outcomes. All fields are guarded for concurrent use.
type Spy struct {
	Response string
	Err      error
	Models   []llmtypes.AvailableModel

	mu         sync.Mutex
	calls      int
	lastPrompt llmtypes.Prompt
	lastTurns  []llmtypes.Turn
}

func (s *Spy) GenerateText(ctx context.Context, prompt llmtypes.Prompt) (string, error) {
	s.mu.Lock()
	s.calls++
	s.lastPrompt = prompt
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Err != nil {
		return "", s.Err
	}

	return s.Response, nil
}

func (s *Spy) GenerateFromTurns(ctx context.Context, persona string, turns []llmtypes.Turn) (string, error) {
	s.mu.Lock()
	s.calls++
	s.lastTurns = append([]llmtypes.Turn(nil), turns...)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Err != nil {
		return "", s.Err
	}

	return s.Response, nil
}

func (s *Spy) GenerateDocument(ctx context.Context, title, background string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Err != nil {
		return "", s.Err
	}

	return s.Response, nil
}

func (s *Spy) ListModels(ctx context.Context) ([]llmtypes.AvailableModel, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	return s.Models, nil
}

// Calls reports how many contract methods have been invoked.
func (s *Spy) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls
}

// LastPrompt returns the prompt from the most recent GenerateText call.
func (s *Spy) LastPrompt() llmtypes.Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastPrompt
}

// LastTurns returns the turns from the most recent GenerateFromTurns call.
func (s *Spy) LastTurns() []llmtypes.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]llmtypes.Turn(nil), s.lastTurns...)
}
