package types

import (
	"github.com/google/uuid"
)

type ModificationAction string

const (
	ActionRegenerateDay   ModificationAction = "regenerate_day"
	ActionAddItem         ModificationAction = "add_item"
	ActionRemoveItem      ModificationAction = "remove_item"
	ActionReplaceItem     ModificationAction = "replace_item"
	ActionGeneralFeedback ModificationAction = "general_feedback"
)

// Valid reports whether a is one of the five known actions.
func (a ModificationAction) Valid() bool {
	switch a {
	case ActionRegenerateDay, ActionAddItem, ActionRemoveItem, ActionReplaceItem, ActionGeneralFeedback:
		return true
	}
	return false
}

// MinActionableConfidence is the gate below which an intent (other than
// general_feedback) must trigger a clarification instead of a mutation.
const MinActionableConfidence = 0.5

// ModificationIntent is the typed action distilled from a free-text message.
type ModificationIntent struct {
	Action      ModificationAction `json:"action"`
	DayNumber   *int               `json:"day_number,omitempty"`
	ItemName    string             `json:"item_name,omitempty"`
	Category    string             `json:"category,omitempty"`
	Confidence  float64            `json:"confidence"`
	Explanation string             `json:"explanation,omitempty"`
}

// Actionable reports whether the intent is confident enough to mutate.
// General feedback carries no mutation and is always actionable.
func (i ModificationIntent) Actionable() bool {
	return i.Action == ActionGeneralFeedback || i.Confidence >= MinActionableConfidence
}

// ModificationResult is the uniform outcome of every mutation action.
// Success false is ordinary flow (ambiguous request, nothing matched); the
// item list then reflects the unchanged itinerary.
type ModificationResult struct {
	Success      bool                `json:"success"`
	UpdatedItems []ItineraryItem     `json:"updated_items"`
	BotMessage   string              `json:"bot_message"`
	Intent       *ModificationIntent `json:"intent,omitempty"`
}

type ChatIntent string

const (
	ChatIntentQuestion     ChatIntent = "question"
	ChatIntentModification ChatIntent = "modification"
	ChatIntentFeedback     ChatIntent = "feedback"
	ChatIntentOther        ChatIntent = "other"
)

// ChatResult is the orchestrator's reply: the conversational response, how
// the message was classified, and, after a delegated mutation, the new item
// list and its outcome.
type ChatResult struct {
	Response            string          `json:"response"`
	Intent              ChatIntent      `json:"intent"`
	UpdatedItems        []ItineraryItem `json:"updated_items,omitempty"`
	ModificationSuccess *bool           `json:"modification_success,omitempty"`
}

// CandidateQuery is the Candidate Sourcer input. Zero results is a valid
// outcome, never an error.
type CandidateQuery struct {
	Query      string      `json:"query,omitempty"`
	Interests  []string    `json:"interests,omitempty"`
	Categories []string    `json:"categories,omitempty"`
	Region     string      `json:"region,omitempty"`
	Type       ItemType    `json:"type"`
	ExcludeIDs []uuid.UUID `json:"exclude_ids,omitempty"`
	Limit      int         `json:"limit"`
}
