package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	generativeAI "github.com/curatrip/curatrip-server/internal/api/generative_ai"
	"github.com/curatrip/curatrip-server/internal/types"
)

// ErrMalformedIntentResponse marks a model answer that failed field-level
// validation. Callers degrade to NeutralIntent instead of acting on it.
var ErrMalformedIntentResponse = errors.New("malformed intent response")

// NeutralIntent is the safe fallback: no action, zero confidence, so every
// caller treats it as "ask the customer to clarify".
func NeutralIntent() types.ModificationIntent {
	return types.ModificationIntent{}
}

// ParseIntentResponse validates the model's JSON answer field by field. A
// payload that cannot be trusted end to end yields ErrMalformedIntentResponse
// rather than a partially defaulted intent.
func ParseIntentResponse(raw string) (types.ModificationIntent, error) {
	block := generativeAI.ExtractJSONBlock(raw)

	var payload struct {
		Action      string   `json:"action"`
		DayNumber   *int     `json:"day_number"`
		ItemName    string   `json:"item_name"`
		Category    string   `json:"category"`
		Confidence  *float64 `json:"confidence"`
		Explanation string   `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(block), &payload); err != nil {
		return types.ModificationIntent{}, fmt.Errorf("%w: %v", ErrMalformedIntentResponse, err)
	}

	action := types.ModificationAction(strings.ToLower(strings.TrimSpace(payload.Action)))
	if !action.Valid() {
		return types.ModificationIntent{}, fmt.Errorf("%w: unknown action %q", ErrMalformedIntentResponse, payload.Action)
	}
	if payload.Confidence == nil {
		return types.ModificationIntent{}, fmt.Errorf("%w: missing confidence", ErrMalformedIntentResponse)
	}
	confidence := *payload.Confidence
	if confidence < 0 || confidence > 1 {
		return types.ModificationIntent{}, fmt.Errorf("%w: confidence %v out of range", ErrMalformedIntentResponse, confidence)
	}
	if payload.DayNumber != nil && *payload.DayNumber < 1 {
		return types.ModificationIntent{}, fmt.Errorf("%w: day_number %d out of range", ErrMalformedIntentResponse, *payload.DayNumber)
	}

	return types.ModificationIntent{
		Action:      action,
		DayNumber:   payload.DayNumber,
		ItemName:    strings.TrimSpace(payload.ItemName),
		Category:    strings.TrimSpace(payload.Category),
		Confidence:  confidence,
		Explanation: strings.TrimSpace(payload.Explanation),
	}, nil
}
