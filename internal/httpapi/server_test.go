package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mcxraider/agentic-travel-planner-backend/internal/interview"
	"github.com/mcxraider/agentic-travel-planner-backend/internal/sessionstore"
)

const emptyEnvelope = `{"round": %d, "questions": [], "state": {"collected": []}, "data": {}}`

func questionEnvelope(round int) string {
	return fmt.Sprintf(`{"round": %d, "questions": [
		{"id": "q%d_1", "field": "pace_preference", "tier": 1, "question": "Pace?", "type": "single_select", "options": ["relaxed", "packed"]}
	], "state": {"collected": []}, "data": {}}`, round, round)
}

func newTestServer(responses ...string) (http.Handler, *sessionstore.MemoryStore) {
	store := sessionstore.NewMemoryStore(sessionstore.MemoryConfig{})
	gen := &interview.ScriptedGenerator{Responses: responses}
	ctrl := interview.NewController(gen, interview.DefaultTierConfig())
	handler := NewServer(Config{Store: store, Controller: ctrl})
	return handler, store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var payload map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("bad JSON response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, payload
}

func validStartBody() map[string]any {
	return map[string]any{
		"user_name":        "Dana",
		"work_obligations": "remote standup",
		"destination":      "Japan",
		"start_date":       "2026-03-02",
		"end_date":         "2026-03-09",
		"budget":           4000,
		"currency":         "SGD",
		"travel_party":     "2 adults",
	}
}

// Answers that push the score past the threshold in a single round.
func completingAnswers() map[string]any {
	cfg := interview.DefaultTierConfig()
	answers := map[string]any{}
	for _, f := range cfg.AllFields() {
		answers[f] = "answered"
	}
	answers[interview.FieldActivityPreferences] = []string{"food"}
	answers[interview.FieldTop3MustDos] = []string{"a", "b", "c"}
	return answers
}

func startSession(t *testing.T, h http.Handler) string {
	t.Helper()
	rec, payload := doJSON(t, h, http.MethodPost, "/api/interview/start", validStartBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("start = %d: %s", rec.Code, rec.Body.String())
	}
	id, _ := payload["session_id"].(string)
	if id == "" {
		t.Fatalf("no session_id in %v", payload)
	}
	return id
}

func errorCode(t *testing.T, payload map[string]any) string {
	t.Helper()
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error object in %v", payload)
	}
	code, _ := errObj["code"].(string)
	return code
}

func TestStartReturnsFirstRound(t *testing.T) {
	h, _ := newTestServer(questionEnvelope(1))
	rec, payload := doJSON(t, h, http.MethodPost, "/api/interview/start", validStartBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if payload["complete"] != false || payload["round"].(float64) != 1 {
		t.Fatalf("payload = %v", payload)
	}
	questions := payload["questions"].([]any)
	if len(questions) != 1 {
		t.Fatalf("questions = %v", questions)
	}
	data := payload["data"].(map[string]any)
	if len(data) != len(interview.DefaultTierConfig().AllFields()) {
		t.Fatalf("data keys = %d", len(data))
	}
}

func TestStartValidation(t *testing.T) {
	h, _ := newTestServer()
	cases := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing user_name", func(b map[string]any) { delete(b, "user_name") }},
		{"missing destination", func(b map[string]any) { delete(b, "destination") }},
		{"bad start_date", func(b map[string]any) { b["start_date"] = "03/02/2026" }},
		{"end before start", func(b map[string]any) { b["end_date"] = "2026-03-01" }},
		{"zero budget", func(b map[string]any) { b["budget"] = 0 }},
	}
	for _, tc := range cases {
		body := validStartBody()
		tc.mutate(body)
		rec, payload := doJSON(t, h, http.MethodPost, "/api/interview/start", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", tc.name, rec.Code)
			continue
		}
		if code := errorCode(t, payload); code != "bad_request" {
			t.Errorf("%s: code = %q", tc.name, code)
		}
	}
}

func TestStartRejectsGet(t *testing.T) {
	h, _ := newTestServer()
	rec, _ := doJSON(t, h, http.MethodGet, "/api/interview/start", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRespondAdvancesRound(t *testing.T) {
	h, _ := newTestServer(questionEnvelope(1), questionEnvelope(2))
	id := startSession(t, h)

	rec, payload := doJSON(t, h, http.MethodPost, "/api/interview/respond", map[string]any{
		"session_id": id,
		"responses": map[string]any{
			"activity_preferences": []string{"food"},
			"pace_preference":      "moderate",
			"tourist_vs_local":     "mix",
			"mobility_level":       "high",
			"dining_style":         "street food",
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if payload["complete"] != false || payload["round"].(float64) != 2 {
		t.Fatalf("payload = %v", payload)
	}
	state := payload["state"].(map[string]any)
	if state["score"].(float64) != 50 {
		t.Fatalf("score = %v", state["score"])
	}

	_, status := doJSON(t, h, http.MethodGet, "/api/interview/sessions/"+id, nil)
	if status["round"].(float64) != 2 || status["score"].(float64) != 50 {
		t.Fatalf("status = %v", status)
	}
}

func TestRespondCompletesAtThreshold(t *testing.T) {
	h, _ := newTestServer(questionEnvelope(1), fmt.Sprintf(emptyEnvelope, 2))
	id := startSession(t, h)

	rec, payload := doJSON(t, h, http.MethodPost, "/api/interview/respond", map[string]any{
		"session_id": id,
		"responses":  completingAnswers(),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if payload["complete"] != true {
		t.Fatalf("payload = %v", payload)
	}
	if payload["round"].(float64) != 1 {
		t.Fatalf("completed in round %v, want 1", payload["round"])
	}
	reason, _ := payload["reason"].(string)
	if !strings.Contains(reason, "all critical fields complete") {
		t.Fatalf("reason = %q", reason)
	}
}

func TestRespondFrozenSessionReturnsFinalPayload(t *testing.T) {
	// Exactly two scripted responses: a third generator call would return an
	// unparseable empty body and fail the request.
	h, _ := newTestServer(questionEnvelope(1), fmt.Sprintf(emptyEnvelope, 2))
	id := startSession(t, h)

	req := map[string]any{"session_id": id, "responses": completingAnswers()}
	if rec, _ := doJSON(t, h, http.MethodPost, "/api/interview/respond", req); rec.Code != http.StatusOK {
		t.Fatalf("first submit = %d", rec.Code)
	}

	rec, payload := doJSON(t, h, http.MethodPost, "/api/interview/respond", req)
	if rec.Code != http.StatusOK {
		t.Fatalf("replay = %d: %s", rec.Code, rec.Body.String())
	}
	if payload["complete"] != true || payload["round"].(float64) != 1 {
		t.Fatalf("payload = %v", payload)
	}
}

func TestRespondUnknownSession(t *testing.T) {
	h, _ := newTestServer()
	rec, payload := doJSON(t, h, http.MethodPost, "/api/interview/respond", map[string]any{
		"session_id": "ghost", "responses": map[string]any{},
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if code := errorCode(t, payload); code != "session_not_found" {
		t.Fatalf("code = %q", code)
	}
}

func TestRespondRequiresSessionID(t *testing.T) {
	h, _ := newTestServer()
	rec, _ := doJSON(t, h, http.MethodPost, "/api/interview/respond", map[string]any{"responses": map[string]any{}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

// A parse failure must not consume the round: the stored snapshot stays
// untouched and an immediate retry of the same round can succeed.
func TestRespondParseFailureIsRetryable(t *testing.T) {
	h, _ := newTestServer(
		questionEnvelope(1),
		"Sorry, I cannot respond in that format.",
		questionEnvelope(2),
	)
	id := startSession(t, h)
	req := map[string]any{
		"session_id": id,
		"responses":  map[string]any{"pace_preference": "relaxed"},
	}

	rec, payload := doJSON(t, h, http.MethodPost, "/api/interview/respond", req)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, payload); code != "invalid_envelope" {
		t.Fatalf("code = %q", code)
	}

	_, status := doJSON(t, h, http.MethodGet, "/api/interview/sessions/"+id, nil)
	if status["round"].(float64) != 1 {
		t.Fatalf("failed round consumed: %v", status)
	}

	rec, payload = doJSON(t, h, http.MethodPost, "/api/interview/respond", req)
	if rec.Code != http.StatusOK || payload["round"].(float64) != 2 {
		t.Fatalf("retry = %d %v", rec.Code, payload)
	}
}

func TestSessionStatusUnknown(t *testing.T) {
	h, _ := newTestServer()
	rec, payload := doJSON(t, h, http.MethodGet, "/api/interview/sessions/ghost", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if payload["exists"] != false {
		t.Fatalf("payload = %v", payload)
	}
}

func TestSessionDelete(t *testing.T) {
	h, _ := newTestServer(questionEnvelope(1))
	id := startSession(t, h)

	rec, _ := doJSON(t, h, http.MethodDelete, "/api/interview/sessions/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete = %d", rec.Code)
	}
	_, status := doJSON(t, h, http.MethodGet, "/api/interview/sessions/"+id, nil)
	if status["exists"] != false {
		t.Fatalf("status = %v", status)
	}
}

func TestReportRequiresCompletion(t *testing.T) {
	h, _ := newTestServer(questionEnvelope(1))
	id := startSession(t, h)

	rec, payload := doJSON(t, h, http.MethodGet, "/api/interview/sessions/"+id+"/report", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
	if code := errorCode(t, payload); code != "session_incomplete" {
		t.Fatalf("code = %q", code)
	}
}

func TestReportFormats(t *testing.T) {
	h, _ := newTestServer(questionEnvelope(1), fmt.Sprintf(emptyEnvelope, 2))
	id := startSession(t, h)
	if rec, _ := doJSON(t, h, http.MethodPost, "/api/interview/respond", map[string]any{
		"session_id": id, "responses": completingAnswers(),
	}); rec.Code != http.StatusOK {
		t.Fatalf("submit = %d", rec.Code)
	}

	rec, _ := doJSON(t, h, http.MethodGet, "/api/interview/sessions/"+id+"/report", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("markdown report = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "# Trip Preference Summary") {
		t.Fatalf("body = %q", rec.Body.String())
	}

	rec, _ = doJSON(t, h, http.MethodGet, "/api/interview/sessions/"+id+"/report?format=html", nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "<!doctype html>") {
		t.Fatalf("html report = %d: %q", rec.Code, rec.Body.String()[:60])
	}

	rec, _ = doJSON(t, h, http.MethodGet, "/api/interview/sessions/"+id+"/report?format=docx", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad format = %d", rec.Code)
	}

	// No renderer configured in tests.
	rec, _ = doJSON(t, h, http.MethodGet, "/api/interview/sessions/"+id+"/report?format=pdf", nil)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("pdf report = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer()
	rec, payload := doJSON(t, h, http.MethodGet, "/api/interview/health", nil)
	if rec.Code != http.StatusOK || payload["status"] != "healthy" {
		t.Fatalf("health = %d %v", rec.Code, payload)
	}
}
