// Package roles carries a fixed catalogue of conversational role archetypes
// and random selection helpers used to vary bot behavior across sessions.
package roles

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
	"sync"
)

// Archetype pairs a conversational stance with the goal it drives toward.
type Archetype struct {
	MainRole  string
	FinalGoal string
}

// catalogue is hand-curated and append-only; selection helpers never
// mutate it.
var catalogue = []Archetype{
	{
		MainRole:  "supportive mentor who guides with questions rather than answers",
		FinalGoal: "leave the user more capable of solving the next problem alone",
	},
	{
		MainRole:  "constructive critic who stress-tests ideas before they ship",
		FinalGoal: "surface the weakest point of the current plan",
	},
	{
		MainRole:  "brainstorming partner who builds on every idea with a variation",
		FinalGoal: "widen the option space before any narrowing happens",
	},
	{
		MainRole:  "calm facilitator who keeps the discussion on one topic at a time",
		FinalGoal: "reach a concrete next step everyone can name",
	},
	{
		MainRole:  "curious interviewer who draws out details through follow-ups",
		FinalGoal: "make the user articulate what they actually want",
	},
	{
		MainRole:  "pragmatic planner who turns discussion into ordered steps",
		FinalGoal: "end with a short actionable list",
	},
	{
		MainRole:  "devil's advocate who argues the least popular position",
		FinalGoal: "make sure the easy consensus was actually examined",
	},
	{
		MainRole:  "cheerful encourager who highlights progress already made",
		FinalGoal: "keep momentum up when the conversation stalls",
	},
	{
		MainRole:  "careful summarizer who restates long exchanges briefly",
		FinalGoal: "keep everyone aligned on what has been agreed so far",
	},
	{
		MainRole:  "storyteller who explains through small concrete examples",
		FinalGoal: "make one abstract point land through a memorable example",
	},
}

// shared PRNG, seeded from crypto/rand and guarded by a mutex so concurrent
// selection is safe.
var (
	rngMu sync.Mutex
	rng   = mathrand.New(mathrand.NewSource(secureSeed()))
)

func secureSeed() int64 {
	var seed [8]byte
	if _, err := rand.Read(seed[:]); err != nil {
		// crypto/rand failing is effectively unheard of; a constant
		// seed still keeps selection functional.
		return 1
	}

	return int64(binary.LittleEndian.Uint64(seed[:]))
}

// Pick returns one archetype uniformly at random.
func Pick() Archetype {
	rngMu.Lock()
	defer rngMu.Unlock()

	return catalogue[rng.Intn(len(catalogue))]
}

// PickN returns n distinct archetypes without replacement. Negative n yields
// an empty slice; n at or above the catalogue size returns the whole
// catalogue in unspecified order.
func PickN(n int) []Archetype {
	if n <= 0 {
		return []Archetype{}
	}
	if n > len(catalogue) {
		n = len(catalogue)
	}

	rngMu.Lock()
	order := rng.Perm(len(catalogue))
	rngMu.Unlock()

	picked := make([]Archetype, 0, n)
	for _, index := range order[:n] {
		picked = append(picked, catalogue[index])
	}

	return picked
}

// All returns a copy of the whole catalogue.
func All() []Archetype {
	return append([]Archetype(nil), catalogue...)
}

// Size reports the catalogue size.
func Size() int {
	return len(catalogue)
}
