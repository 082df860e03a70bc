// Package debuglog writes per-session JSON Lines debug logs: every
// generation-service call with latency, token usage and estimated cost, API
// timings, and a session summary. Each session gets its own directory under
// the logs root.
package debuglog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Per-million-token prices, used for cost estimates in the logs. Unknown
// models log a zero cost rather than failing.
var modelPrices = map[string]struct{ In, Out float64 }{
	"claude-sonnet-4-20250514": {In: 3.0, Out: 15.0},
	"claude-haiku-3-5":         {In: 0.80, Out: 4.0},
}

func estimateCost(model string, inputTokens, outputTokens int64) float64 {
	for name, p := range modelPrices {
		if strings.HasPrefix(model, name) {
			return (float64(inputTokens)*p.In + float64(outputTokens)*p.Out) / 1e6
		}
	}
	return 0
}

// Logger appends entries for one session. Safe for concurrent use.
type Logger struct {
	sessionID string
	path      string
	mu        sync.Mutex
	now       func() time.Time
}

func New(logsDir, sessionID string) (*Logger, error) {
	dir := filepath.Join(logsDir, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session log dir: %w", err)
	}
	return &Logger{
		sessionID: sessionID,
		path:      filepath.Join(dir, "session_logs.jsonl"),
		now:       time.Now,
	}, nil
}

func (l *Logger) append(entry map[string]any) error {
	entry["timestamp"] = l.now().UTC().Format(time.RFC3339)
	entry["session_id"] = l.sessionID
	blob, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(blob, '\n')); err != nil {
		return err
	}
	return nil
}

// LLMCall records one generation-service round trip.
func (l *Logger) LLMCall(round int, model, systemPrompt, userPrompt, response string, elapsed time.Duration, inputTokens, outputTokens int64) error {
	return l.append(map[string]any{
		"type":          "llm_call",
		"round":         round,
		"model":         model,
		"system_prompt": systemPrompt,
		"user_prompt":   userPrompt,
		"response":      response,
		"duration_ms":   roundMillis(elapsed),
		"input_tokens":  inputTokens,
		"output_tokens": outputTokens,
		"total_tokens":  inputTokens + outputTokens,
		"cost_usd":      round6(estimateCost(model, inputTokens, outputTokens)),
	})
}

// APITiming records one endpoint invocation.
func (l *Logger) APITiming(endpoint string, elapsed time.Duration, round int, success bool, errMsg string) error {
	entry := map[string]any{
		"type":        "api_timing",
		"endpoint":    endpoint,
		"duration_ms": roundMillis(elapsed),
		"success":     success,
	}
	if round > 0 {
		entry["round"] = round
	}
	if errMsg != "" {
		entry["error"] = errMsg
	}
	return l.append(entry)
}

// Summary is the aggregated view of a session's log file.
type Summary struct {
	TotalRounds    int     `json:"total_rounds"`
	TotalLLMCalls  int     `json:"total_llm_calls"`
	TotalInTokens  int64   `json:"total_input_tokens"`
	TotalOutTokens int64   `json:"total_output_tokens"`
	TotalCostUSD   float64 `json:"total_cost_usd"`
	TotalLLMMillis float64 `json:"total_llm_duration_ms"`
	TotalAPIMillis float64 `json:"total_api_duration_ms"`
}

// SessionSummary aggregates the session's entries from disk and appends a
// summary line. Reading back keeps the logger itself stateless across the
// process restarts a long interview can span.
func (l *Logger) SessionSummary(totalRounds int) (Summary, error) {
	sum, err := l.aggregate()
	if err != nil {
		return Summary{}, err
	}
	sum.TotalRounds = totalRounds
	err = l.append(map[string]any{
		"type":                  "session_summary",
		"total_rounds":          sum.TotalRounds,
		"total_llm_calls":       sum.TotalLLMCalls,
		"total_input_tokens":    sum.TotalInTokens,
		"total_output_tokens":   sum.TotalOutTokens,
		"total_tokens":          sum.TotalInTokens + sum.TotalOutTokens,
		"total_cost_usd":        round6(sum.TotalCostUSD),
		"total_llm_duration_ms": sum.TotalLLMMillis,
		"total_api_duration_ms": sum.TotalAPIMillis,
	})
	return sum, err
}

func (l *Logger) aggregate() (Summary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Summary{}, nil
		}
		return Summary{}, err
	}
	defer f.Close()

	var sum Summary
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var entry struct {
			Type         string  `json:"type"`
			DurationMs   float64 `json:"duration_ms"`
			InputTokens  int64   `json:"input_tokens"`
			OutputTokens int64   `json:"output_tokens"`
			CostUSD      float64 `json:"cost_usd"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		switch entry.Type {
		case "llm_call":
			sum.TotalLLMCalls++
			sum.TotalInTokens += entry.InputTokens
			sum.TotalOutTokens += entry.OutputTokens
			sum.TotalCostUSD += entry.CostUSD
			sum.TotalLLMMillis += entry.DurationMs
		case "api_timing":
			sum.TotalAPIMillis += entry.DurationMs
		}
	}
	return sum, scanner.Err()
}

func roundMillis(d time.Duration) float64 {
	return math.Round(float64(d.Microseconds())/10) / 100
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
