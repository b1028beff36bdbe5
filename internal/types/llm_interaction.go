package types

import (
	"time"

	"github.com/google/uuid"
)

// LlmInteraction is the audit record written for every completion call so
// prompt cost and latency stay observable per caller. Recording is
// best-effort and never fails the call it describes.
type LlmInteraction struct {
	ID            uuid.UUID     `json:"id"`
	EstimateID    uuid.NullUUID `json:"estimate_id,omitempty"`
	Caller        string        `json:"caller"`
	ModelUsed     string        `json:"model_used"`
	PromptChars   int           `json:"prompt_chars"`
	ResponseChars int           `json:"response_chars"`
	LatencyMs     int           `json:"latency_ms"`
	Success       bool          `json:"success"`
	CreatedAt     time.Time     `json:"created_at"`
}
