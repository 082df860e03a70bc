package interview

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ParseError reports that generation-service output did not decode into a
// valid round envelope. It is fatal to the current round only; the caller may
// retry the round with the same or corrected inputs.
type ParseError struct {
	Reason  string
	Missing []string
}

func (e *ParseError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.Missing, ", "))
	}
	return e.Reason
}

// Question is one item the service proposes to ask the user.
type Question struct {
	ID            string   `json:"id"`
	Field         string   `json:"field"`
	Tier          int      `json:"tier"`
	Question      string   `json:"question"`
	Type          string   `json:"type"`
	Options       []string `json:"options,omitempty"`
	MinSelections *int     `json:"min_selections,omitempty"`
	MaxSelections *int     `json:"max_selections,omitempty"`
	AllowCustom   bool     `json:"allow_custom,omitempty"`
}

// EnvelopeState is the service's own bookkeeping for the round. Only
// ConflictsDetected feeds the completion decision; the reported score is
// never trusted.
type EnvelopeState struct {
	Collected         []string `json:"collected"`
	MissingTier1      []string `json:"missing_tier1,omitempty"`
	MissingTier2      []string `json:"missing_tier2,omitempty"`
	ConflictsDetected []string `json:"conflicts_detected,omitempty"`
	Score             int      `json:"score,omitempty"`
}

// Envelope is the validated structured response for one round. It is
// transient: consumed by the controller and discarded once merged.
type Envelope struct {
	Round     int            `json:"round"`
	Questions []Question     `json:"questions"`
	State     EnvelopeState  `json:"state"`
	Data      map[string]any `json:"data"`
}

// ExtractJSON pulls the JSON value out of raw model output.
//
// Order of operations: trim whitespace; if a fenced code block is present,
// take the first block's interior; then scan for the first '{' or '[' and
// return the balanced substring from there, dropping any prose before or
// after it. If no bracket boundary is found the text is returned unchanged so
// the decode step can fail with the real content in hand.
func ExtractJSON(raw string) string {
	content := strings.TrimSpace(raw)

	if inner, ok := fencedBlock(content); ok {
		content = inner
	}

	start := strings.IndexAny(content, "{[")
	if start < 0 {
		return content
	}
	open := content[start]
	var closer byte = '}'
	if open == '[' {
		closer = ']'
	}
	depth := 0
	for i := start; i < len(content); i++ {
		switch content[i] {
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return content
}

func fencedBlock(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start < 0 {
		return "", false
	}
	body := s[start+3:]
	body = strings.TrimPrefix(body, "json")
	end := strings.Index(body, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(body[:end]), true
}

// DecodeEnvelope strictly decodes an extracted JSON string. Missing required
// keys surface as *ParseError naming each absent key; nothing is repaired or
// guessed. Field-level correctness is the merger's and scorer's concern.
func DecodeEnvelope(jsonStr string) (Envelope, error) {
	var loose map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &loose); err != nil {
		return Envelope{}, &ParseError{Reason: fmt.Sprintf("invalid envelope JSON: %v", err)}
	}

	var missing []string
	for _, key := range []string{"round", "questions", "state", "data"} {
		if _, ok := loose[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Envelope{}, &ParseError{Reason: "envelope missing required keys", Missing: missing}
	}

	var state map[string]json.RawMessage
	if err := json.Unmarshal(loose["state"], &state); err != nil {
		return Envelope{}, &ParseError{Reason: fmt.Sprintf("invalid envelope state: %v", err)}
	}
	if _, ok := state["collected"]; !ok {
		return Envelope{}, &ParseError{Reason: "envelope state missing required keys", Missing: []string{"collected"}}
	}

	var env Envelope
	if err := json.Unmarshal([]byte(jsonStr), &env); err != nil {
		return Envelope{}, &ParseError{Reason: fmt.Sprintf("envelope shape mismatch: %v", err)}
	}
	if env.Data == nil {
		env.Data = map[string]any{}
	}
	return env, nil
}

// ParseEnvelope extracts and decodes in one step.
func ParseEnvelope(raw string) (Envelope, error) {
	return DecodeEnvelope(ExtractJSON(raw))
}
