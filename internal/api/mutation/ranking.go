package mutation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	generativeAI "github.com/curatrip/curatrip-server/internal/api/generative_ai"
	"github.com/curatrip/curatrip-server/internal/types"
)

const (
	rankTemperature = float32(0.3)
	rankMaxTokens   = int32(512)

	// Candidate descriptions are truncated in the prompt; the model ranks,
	// it does not need the whole brochure.
	rankDescriptionLimit = 160
)

// ranker asks the model to pick from a sourced candidate pool. It never
// fails: an unusable answer falls back to the leading candidates, which are
// already filtered and eligible.
type ranker struct {
	logger *slog.Logger
	ai     generativeAI.CompletionClient
}

const rankSystemPrompt = `You select places for a Korea travel itinerary. Pick only from the numbered candidate list you are given. Respond with a single JSON object and nothing else.`

// pickOne returns the best candidate for the stated need plus the model's
// one-line justification. candidates must be non-empty.
func (r *ranker) pickOne(ctx context.Context, need string, candidates []types.CatalogPlace, estimateID uuid.NullUUID) (types.CatalogPlace, string) {
	if len(candidates) == 1 {
		return candidates[0], ""
	}

	prompt := fmt.Sprintf(`The customer needs: %s

Candidates:
%s

Choose the single best candidate as JSON:
{"selected_id": "<id>", "reason": "<one short sentence>"}`, need, formatCandidates(candidates))

	raw, err := r.ai.Complete(ctx, generativeAI.CompletionRequest{
		Prompt:          prompt,
		SystemPrompt:    rankSystemPrompt,
		Temperature:     rankTemperature,
		MaxOutputTokens: rankMaxTokens,
		Caller:          "ranking_pick_one",
		EstimateID:      estimateID,
	})
	if err != nil {
		r.logger.WarnContext(ctx, "Ranking call failed, falling back to first candidate", slog.Any("error", err))
		return candidates[0], ""
	}

	var payload struct {
		SelectedID string `json:"selected_id"`
		Reason     string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(generativeAI.ExtractJSONBlock(raw)), &payload); err != nil {
		r.logger.WarnContext(ctx, "Unparseable ranking response, falling back to first candidate", slog.Any("error", err))
		return candidates[0], ""
	}
	id, err := uuid.Parse(strings.TrimSpace(payload.SelectedID))
	if err != nil {
		r.logger.WarnContext(ctx, "Ranking returned a non-id, falling back to first candidate",
			slog.String("selected_id", payload.SelectedID))
		return candidates[0], ""
	}
	for _, candidate := range candidates {
		if candidate.ID == id {
			return candidate, strings.TrimSpace(payload.Reason)
		}
	}
	r.logger.WarnContext(ctx, "Ranking picked an id outside the candidate set, falling back to first candidate",
		slog.String("selected_id", payload.SelectedID))
	return candidates[0], ""
}

// pickMany returns exactly count candidates (count <= len(candidates)),
// topping up with the leading unpicked candidates when the model returns
// fewer valid ids.
func (r *ranker) pickMany(ctx context.Context, need string, candidates []types.CatalogPlace, count int, estimateID uuid.NullUUID) ([]types.CatalogPlace, string) {
	if count >= len(candidates) {
		return candidates, ""
	}

	prompt := fmt.Sprintf(`The customer needs: %s

Candidates:
%s

Choose the best %d candidates as JSON:
{"selected_ids": ["<id>", ...], "reason": "<one short sentence>"}`, need, formatCandidates(candidates), count)

	raw, err := r.ai.Complete(ctx, generativeAI.CompletionRequest{
		Prompt:          prompt,
		SystemPrompt:    rankSystemPrompt,
		Temperature:     rankTemperature,
		MaxOutputTokens: rankMaxTokens,
		Caller:          "ranking_pick_day",
		EstimateID:      estimateID,
	})
	if err != nil {
		r.logger.WarnContext(ctx, "Ranking call failed, falling back to leading candidates", slog.Any("error", err))
		return candidates[:count], ""
	}

	var payload struct {
		SelectedIDs []string `json:"selected_ids"`
		Reason      string   `json:"reason"`
	}
	if err := json.Unmarshal([]byte(generativeAI.ExtractJSONBlock(raw)), &payload); err != nil {
		r.logger.WarnContext(ctx, "Unparseable ranking response, falling back to leading candidates", slog.Any("error", err))
		return candidates[:count], ""
	}

	byID := make(map[uuid.UUID]types.CatalogPlace, len(candidates))
	for _, candidate := range candidates {
		byID[candidate.ID] = candidate
	}
	picked := make([]types.CatalogPlace, 0, count)
	seen := make(map[uuid.UUID]struct{}, count)
	for _, rawID := range payload.SelectedIDs {
		if len(picked) == count {
			break
		}
		id, err := uuid.Parse(strings.TrimSpace(rawID))
		if err != nil {
			continue
		}
		candidate, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		picked = append(picked, candidate)
	}
	// The day must end up with the promised count even if the model
	// underdelivered.
	for _, candidate := range candidates {
		if len(picked) == count {
			break
		}
		if _, dup := seen[candidate.ID]; dup {
			continue
		}
		seen[candidate.ID] = struct{}{}
		picked = append(picked, candidate)
	}
	return picked, strings.TrimSpace(payload.Reason)
}

func formatCandidates(candidates []types.CatalogPlace) string {
	var sb strings.Builder
	for i, candidate := range candidates {
		description := candidate.Description
		if runes := []rune(description); len(runes) > rankDescriptionLimit {
			description = string(runes[:rankDescriptionLimit]) + "..."
		}
		fmt.Fprintf(&sb, "%d. id=%s | %s (%s) | keywords: %s | %s\n",
			i+1, candidate.ID, candidate.DisplayName(), candidate.NameKor, candidate.Keyword, description)
	}
	return strings.TrimRight(sb.String(), "\n")
}
