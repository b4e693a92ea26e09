package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// SuggestionType identifies which rule produced a suggestion.
type SuggestionType string

const (
	SuggestPeakFocus       SuggestionType = "peak_focus"
	SuggestPillarDeficit   SuggestionType = "pillar_deficit"
	SuggestDecliningHealth SuggestionType = "declining_health"
	SuggestOverload        SuggestionType = "overload"
	SuggestEnergyMismatch  SuggestionType = "energy_mismatch"
)

// Suggestion is a generated scheduling recommendation.
// Dismissal is one-way: once dismissed, a suggestion never becomes active
// again, and its signature suppresses re-emission for the cooldown window.
type Suggestion struct {
	ID          uuid.UUID      `json:"id"`
	Type        SuggestionType `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Confidence  float64        `json:"confidence"` // 0-1
	ActionData  map[string]any `json:"action_data,omitempty"`
	Dismissed   bool           `json:"dismissed"`
	DismissedAt *time.Time     `json:"dismissed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	Signature   string         `json:"signature"`
}

// SuggestionSignature derives the dedupe/cooldown key for a (type, target)
// pair. Two candidates with the same signature are the same suggestion,
// regardless of wording or confidence.
func SuggestionSignature(t SuggestionType, target string) string {
	sum := sha256.Sum256([]byte(string(t) + "|" + target))
	return hex.EncodeToString(sum[:8])
}
