// Package sentiment scores messages along independent distress, negativity,
// positivity, and urgency axes for operational consumers (escalation,
// dashboards).
package sentiment

import (
	"context"
	"log/slog"
	"strings"

	"chorus/pkg/llm"
	llmtypes "chorus/pkg/llm/types"
)

// Threshold constants for the derived predicates. Boundary values are
// covered in tests; a score exactly at a threshold satisfies the predicate.
const (
	TroubledThreshold  = 60
	UrgentThreshold    = 70
	AttentionThreshold = 70
)

// Result carries the four axis scores plus the categorical read.
// All scores lie in [0,100].
type Result struct {
	Distress       int
	Negativity     int
	Positivity     int
	Urgency        int
	PrimaryEmotion string
	Confidence     int
	Summary        string
}

// IsTroubled reports distress at or above TroubledThreshold.
func (r Result) IsTroubled() bool {
	return r.Distress >= TroubledThreshold
}

// IsUrgent reports urgency at or above UrgentThreshold.
func (r Result) IsUrgent() bool {
	return r.Urgency >= UrgentThreshold
}

// NeedsAttention reports whether any of distress, negativity, or urgency
// reaches AttentionThreshold.
func (r Result) NeedsAttention() bool {
	return r.Distress >= AttentionThreshold ||
		r.Negativity >= AttentionThreshold ||
		r.Urgency >= AttentionThreshold
}

// Analyzer scores messages through the model client contract.
type Analyzer struct {
	client llm.Client
	log    *slog.Logger
}

func New(client llm.Client) *Analyzer {
	return &Analyzer{
		client: client,
		log:    slog.Default().With("component", "sentiment"),
	}
}

type scoring struct {
	Distress       int    `json:"distress"`
	Negativity     int    `json:"negativity"`
	Positivity     int    `json:"positivity"`
	Urgency        int    `json:"urgency"`
	PrimaryEmotion string `json:"primary_emotion"`
	Confidence     int    `json:"confidence"`
	Summary        string `json:"summary"`
}

const rubric = `Score one chat message on four independent 0-100 axes:
- distress: how much the sender appears to be struggling or suffering
- negativity: overall negative tone
- positivity: overall positive tone
- urgency: how time-critical a response is

Also return primary_emotion (one word, e.g. neutral, joy, anger, fear,
sadness, frustration), confidence (0-100), and summary (one short sentence).`

// Analyze scores one message.
//
// Blank input returns a genuine neutral result (confidence 100) without a
// model call. A failed model call returns the same neutral shape with
// confidence 0 and a failure summary, so failure is distinguishable from
// real neutrality only by confidence, never by shape.
func (a *Analyzer) Analyze(ctx context.Context, message string) Result {
	if strings.TrimSpace(message) == "" {
		return Result{
			PrimaryEmotion: "neutral",
			Confidence:     100,
			Summary:        "no analyzable content",
		}
	}

	parsed, err := llm.GenerateObject[scoring](ctx, a.client, llmtypes.Prompt{
		System: rubric,
		User:   message,
	})
	if err != nil {
		a.log.Warn("sentiment analysis failed, returning neutral result", "error", err)
		return Result{
			PrimaryEmotion: "neutral",
			Confidence:     0,
			Summary:        "analysis failed",
		}
	}

	emotion := strings.TrimSpace(strings.ToLower(parsed.PrimaryEmotion))
	if emotion == "" {
		emotion = "neutral"
	}

	return Result{
		Distress:       clampScore(parsed.Distress),
		Negativity:     clampScore(parsed.Negativity),
		Positivity:     clampScore(parsed.Positivity),
		Urgency:        clampScore(parsed.Urgency),
		PrimaryEmotion: emotion,
		Confidence:     clampScore(parsed.Confidence),
		Summary:        strings.TrimSpace(parsed.Summary),
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}

	return score
}
