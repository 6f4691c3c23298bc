// Package llm defines the vendor-independent model client contract used by
// every analyzer in the decision engine, the vendor factory, and the
// structured-generation helper layered on top of the contract.
package llm

import (
	"context"

	llmtypes "chorus/pkg/llm/types"
)

// Client is the contract every vendor adapter implements.
//
// Every method honors context cancellation at the network boundary and
// performs no retries; retry policy belongs to the caller.
type Client interface {
	// GenerateText produces free text from a system+user prompt pair.
	GenerateText(ctx context.Context, prompt llmtypes.Prompt) (string, error)

	// GenerateFromTurns produces free text from an ordered list of
	// role-tagged turns, with an optional persona override.
	GenerateFromTurns(ctx context.Context, persona string, turns []llmtypes.Turn) (string, error)

	// GenerateDocument produces long-form text from a short title plus
	// optional background context.
	GenerateDocument(ctx context.Context, title, background string) (string, error)

	// ListModels reports the models available for the bound credential.
	ListModels(ctx context.Context) ([]llmtypes.AvailableModel, error)
}
