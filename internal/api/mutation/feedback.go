package mutation

import (
	"math/rand"
	"sync"
)

// feedbackMessages is the canned pool for general_feedback. No mutation
// happens for that action; the engine just keeps the conversation moving.
var feedbackMessages = []string{
	"Glad the plan is coming together! Tell me if any day needs a different pace.",
	"Noted! I can swap in more food stops or a quieter afternoon whenever you like.",
	"Thanks for the feedback. Say the word and I'll adjust any day for you.",
	"Happy to keep polishing. You can also finalize the quote whenever you're ready.",
	"Great! Want me to tweak anything else, or shall we lock this itinerary in?",
}

// feedbackPool picks canned replies through an injected random source so
// tests can pin the sequence. rand.Rand is not goroutine-safe.
type feedbackPool struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newFeedbackPool(rng *rand.Rand) *feedbackPool {
	return &feedbackPool{rng: rng}
}

func (p *feedbackPool) pick() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return feedbackMessages[p.rng.Intn(len(feedbackMessages))]
}
