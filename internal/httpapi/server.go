// Package httpapi exposes the interview engine over HTTP: start a session,
// submit answers round by round, inspect status, and fetch the final report.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mcxraider/agentic-travel-planner-backend/internal/debuglog"
	"github.com/mcxraider/agentic-travel-planner-backend/internal/interview"
	"github.com/mcxraider/agentic-travel-planner-backend/internal/report"
	"github.com/mcxraider/agentic-travel-planner-backend/internal/sessionstore"
)

// Config carries the server's collaborators. LogsDir enables per-session
// debug logs when non-empty; PDF is optional.
type Config struct {
	Store      sessionstore.Store
	Controller *interview.Controller
	Logger     *zap.Logger
	LogsDir    string
	PDF        *report.ChromiumPDFRenderer
}

type Server struct {
	store   sessionstore.Store
	ctrl    *interview.Controller
	logger  *zap.Logger
	logsDir string
	pdf     *report.ChromiumPDFRenderer
	newID   func() string
	now     func() time.Time
}

func NewServer(cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	s := &Server{
		store:   cfg.Store,
		ctrl:    cfg.Controller,
		logger:  cfg.Logger,
		logsDir: cfg.LogsDir,
		pdf:     cfg.PDF,
		newID:   uuid.NewString,
		now:     time.Now,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/interview/start", s.handleStart)
	mux.HandleFunc("/api/interview/respond", s.handleRespond)
	mux.HandleFunc("/api/interview/sessions/", s.handleSessions)
	mux.HandleFunc("/api/interview/health", s.handleHealth)
	return mux
}

type apiError struct {
	Status    int    `json:"-"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Transient bool   `json:"transient,omitempty"`
}

func (e *apiError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	var ae *apiError
	if errors.As(err, &ae) {
		writeJSON(w, ae.Status, map[string]any{"ok": false, "error": ae})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": &apiError{
		Code:      "internal",
		Message:   err.Error(),
		Transient: true,
	}})
}

// stepToAPIError maps controller failures onto the wire, keeping the
// contract that a failed round is distinguishable from continue/complete and
// consumes no round number.
func stepToAPIError(err error) *apiError {
	var pe *interview.ParseError
	if errors.As(err, &pe) {
		return &apiError{
			Status:    http.StatusBadGateway,
			Code:      "invalid_envelope",
			Message:   pe.Error(),
			Transient: true,
		}
	}
	var se *interview.StepError
	if errors.As(err, &se) {
		return &apiError{
			Status:    http.StatusBadGateway,
			Code:      "generation_failed",
			Message:   se.Error(),
			Transient: true,
		}
	}
	return &apiError{Status: http.StatusInternalServerError, Code: "internal", Message: err.Error(), Transient: true}
}

type startRequest struct {
	UserName            string   `json:"user_name"`
	Citizenship         string   `json:"citizenship"`
	HealthLimitations   string   `json:"health_limitations"`
	WorkObligations     string   `json:"work_obligations"`
	DietaryRestrictions string   `json:"dietary_restrictions"`
	SpecificInterests   []string `json:"specific_interests"`

	Destination       string   `json:"destination"`
	DestinationCities []string `json:"destination_cities"`
	StartDate         string   `json:"start_date"`
	EndDate           string   `json:"end_date"`
	Budget            float64  `json:"budget"`
	Currency          string   `json:"currency"`
	TravelParty       string   `json:"travel_party"`
	BudgetScope       string   `json:"budget_scope"`
}

type stateView struct {
	Collected         []string `json:"collected"`
	MissingTier1      []string `json:"missing_tier1"`
	MissingTier2      []string `json:"missing_tier2"`
	ConflictsDetected []string `json:"conflicts_detected"`
	Score             int      `json:"score"`
}

type roundResponse struct {
	SessionID string               `json:"session_id"`
	Complete  bool                 `json:"complete"`
	Round     int                  `json:"round"`
	Reason    string               `json:"reason,omitempty"`
	Questions []interview.Question `json:"questions"`
	State     stateView            `json:"state"`
	Data      map[string]any       `json:"data"`
}

func buildStateView(res interview.ScoringResult, conflicts []string) stateView {
	collected := append([]string{}, res.Tier1Answered...)
	collected = append(collected, res.Tier2Answered...)
	collected = append(collected, res.Tier3Answered...)
	collected = append(collected, res.Tier4Answered...)
	if conflicts == nil {
		conflicts = []string{}
	}
	return stateView{
		Collected:         collected,
		MissingTier1:      res.Tier1Missing,
		MissingTier2:      res.Tier2Missing,
		ConflictsDetected: conflicts,
		Score:             res.Score,
	}
}

func buildRoundResponse(sessionID string, result interview.StepResult) roundResponse {
	questions := result.Questions
	if questions == nil {
		questions = []interview.Question{}
	}
	return roundResponse{
		SessionID: sessionID,
		Complete:  result.Complete,
		Round:     result.Round,
		Reason:    result.Reason,
		Questions: questions,
		State:     buildStateView(result.Scoring, result.Conflicts),
		Data:      result.Data,
	}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, &apiError{Status: http.StatusMethodNotAllowed, Code: "method_not_allowed", Message: "POST required"})
		return
	}
	started := s.now()

	var req startRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	profile, err := profileFromRequest(req)
	if err != nil {
		writeError(w, err)
		return
	}

	sessionID := s.newID()
	sess := interview.NewSession(sessionID, profile, s.ctrl.Config(), s.now())

	result, err := s.ctrl.Start(r.Context(), sess)
	s.logAPITiming(sessionID, "/api/interview/start", started, 1, err)
	if err != nil {
		s.logger.Warn("start step failed", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, stepToAPIError(err))
		return
	}
	if err := s.store.Put(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info("session started",
		zap.String("session_id", sessionID),
		zap.String("destination", profile.Destination),
		zap.Int("score", result.Score))
	writeJSON(w, http.StatusOK, buildRoundResponse(sessionID, result))
}

type respondRequest struct {
	SessionID string         `json:"session_id"`
	Responses map[string]any `json:"responses"`
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, &apiError{Status: http.StatusMethodNotAllowed, Code: "method_not_allowed", Message: "POST required"})
		return
	}
	started := s.now()

	var req respondRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeError(w, &apiError{Status: http.StatusBadRequest, Code: "bad_request", Message: "session_id is required"})
		return
	}

	sess, err := s.store.Get(r.Context(), req.SessionID)
	if errors.Is(err, sessionstore.ErrNotFound) {
		writeError(w, &apiError{Status: http.StatusNotFound, Code: "session_not_found", Message: fmt.Sprintf("session %s not found", req.SessionID)})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	// A finalized session stays frozen: re-submitting returns the final
	// payload instead of consuming another round.
	if sess.Complete {
		writeJSON(w, http.StatusOK, s.frozenResponse(sess))
		return
	}

	round := sess.Round
	result, err := s.ctrl.Submit(r.Context(), sess, req.Responses)
	s.logAPITiming(req.SessionID, "/api/interview/respond", started, round, err)
	if err != nil {
		// The snapshot in the store is untouched; the caller may retry the
		// same round.
		s.logger.Warn("round step failed",
			zap.String("session_id", req.SessionID),
			zap.Int("round", round),
			zap.Error(err))
		writeError(w, stepToAPIError(err))
		return
	}
	if err := s.store.Put(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}

	if result.Complete {
		s.finishDebugLog(req.SessionID, result.Round)
		s.logger.Info("session complete",
			zap.String("session_id", req.SessionID),
			zap.Int("rounds", result.Round),
			zap.Int("score", result.Score),
			zap.String("reason", result.Reason))
	}
	writeJSON(w, http.StatusOK, buildRoundResponse(req.SessionID, result))
}

func (s *Server) frozenResponse(sess *interview.Session) roundResponse {
	res := interview.Score(sess.Data, sess.Profile, s.ctrl.Config())
	return roundResponse{
		SessionID: sess.ID,
		Complete:  true,
		Round:     sess.Round,
		Questions: []interview.Question{},
		State:     buildStateView(res, sess.Conflicts),
		Data:      sess.Data,
	}
}

type statusResponse struct {
	SessionID string `json:"session_id"`
	Exists    bool   `json:"exists"`
	Round     int    `json:"round,omitempty"`
	Score     int    `json:"score,omitempty"`
	Complete  bool   `json:"complete,omitempty"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/interview/sessions/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, &apiError{Status: http.StatusBadRequest, Code: "bad_request", Message: "session id is required"})
		return
	}
	id := parts[0]

	if len(parts) == 2 && parts[1] == "report" {
		s.handleReport(w, r, id)
		return
	}
	if len(parts) != 1 {
		writeError(w, &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "unknown resource"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		sess, err := s.store.Get(r.Context(), id)
		if errors.Is(err, sessionstore.ErrNotFound) {
			writeJSON(w, http.StatusOK, statusResponse{SessionID: id, Exists: false})
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{
			SessionID: id,
			Exists:    true,
			Round:     sess.Round,
			Score:     sess.Score,
			Complete:  sess.Complete,
		})
	case http.MethodDelete:
		if err := s.store.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "session_id": id})
	default:
		writeError(w, &apiError{Status: http.StatusMethodNotAllowed, Code: "method_not_allowed", Message: "GET or DELETE required"})
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, &apiError{Status: http.StatusMethodNotAllowed, Code: "method_not_allowed", Message: "GET required"})
		return
	}
	sess, err := s.store.Get(r.Context(), id)
	if errors.Is(err, sessionstore.ErrNotFound) {
		writeError(w, &apiError{Status: http.StatusNotFound, Code: "session_not_found", Message: fmt.Sprintf("session %s not found", id)})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if !sess.Complete {
		writeError(w, &apiError{Status: http.StatusConflict, Code: "session_incomplete", Message: "report is only available once the interview is complete"})
		return
	}

	cfg := s.ctrl.Config()
	markdown := report.BuildMarkdown(sess, interview.Score(sess.Data, sess.Profile, cfg), cfg)

	switch r.URL.Query().Get("format") {
	case "", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, markdown)
	case "html":
		doc, err := report.RenderHTML(markdown)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, doc)
	case "pdf":
		if s.pdf == nil || !s.pdf.Available() {
			writeError(w, &apiError{Status: http.StatusNotImplemented, Code: "pdf_unavailable", Message: "no chromium binary available for PDF export"})
			return
		}
		pdf, err := s.pdf.Render(r.Context(), markdown)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(pdf)
	default:
		writeError(w, &apiError{Status: http.StatusBadRequest, Code: "bad_request", Message: "format must be markdown, html, or pdf"})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func decodeBody(r *http.Request, out any) error {
	if r.Body == nil {
		return &apiError{Status: http.StatusBadRequest, Code: "bad_request", Message: "request body is required"}
	}
	blob, err := io.ReadAll(r.Body)
	if err != nil {
		return &apiError{Status: http.StatusBadRequest, Code: "bad_request", Message: "read body: " + err.Error()}
	}
	if err := json.Unmarshal(blob, out); err != nil {
		return &apiError{Status: http.StatusBadRequest, Code: "bad_request", Message: "invalid JSON body: " + err.Error()}
	}
	return nil
}

func profileFromRequest(req startRequest) (interview.Profile, error) {
	if strings.TrimSpace(req.UserName) == "" {
		return interview.Profile{}, &apiError{Status: http.StatusBadRequest, Code: "bad_request", Message: "user_name is required"}
	}
	if strings.TrimSpace(req.Destination) == "" {
		return interview.Profile{}, &apiError{Status: http.StatusBadRequest, Code: "bad_request", Message: "destination is required"}
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return interview.Profile{}, &apiError{Status: http.StatusBadRequest, Code: "bad_request", Message: "start_date must be YYYY-MM-DD"}
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return interview.Profile{}, &apiError{Status: http.StatusBadRequest, Code: "bad_request", Message: "end_date must be YYYY-MM-DD"}
	}
	if end.Before(start) {
		return interview.Profile{}, &apiError{Status: http.StatusBadRequest, Code: "bad_request", Message: "end_date must not precede start_date"}
	}
	if req.Budget <= 0 {
		return interview.Profile{}, &apiError{Status: http.StatusBadRequest, Code: "bad_request", Message: "budget must be positive"}
	}

	return interview.Profile{
		UserName:            req.UserName,
		Citizenship:         defaultStr(req.Citizenship, "Not specified"),
		HealthLimitations:   req.HealthLimitations,
		WorkObligations:     req.WorkObligations,
		DietaryRestrictions: req.DietaryRestrictions,
		SpecificInterests:   req.SpecificInterests,
		Destination:         req.Destination,
		DestinationCities:   req.DestinationCities,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		TripDuration:        int(end.Sub(start).Hours()/24) + 1,
		Budget:              req.Budget,
		Currency:            defaultStr(req.Currency, "USD"),
		TravelParty:         defaultStr(req.TravelParty, "1 adult"),
		BudgetScope:         defaultStr(req.BudgetScope, "Total trip budget"),
	}, nil
}

func defaultStr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func (s *Server) logAPITiming(sessionID, endpoint string, started time.Time, round int, stepErr error) {
	if s.logsDir == "" {
		return
	}
	dl, err := debuglog.New(s.logsDir, sessionID)
	if err != nil {
		s.logger.Warn("open debug log", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	errMsg := ""
	if stepErr != nil {
		errMsg = stepErr.Error()
	}
	if err := dl.APITiming(endpoint, s.now().Sub(started), round, stepErr == nil, errMsg); err != nil {
		s.logger.Warn("write debug log", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func (s *Server) finishDebugLog(sessionID string, totalRounds int) {
	if s.logsDir == "" {
		return
	}
	dl, err := debuglog.New(s.logsDir, sessionID)
	if err != nil {
		return
	}
	if _, err := dl.SessionSummary(totalRounds); err != nil {
		s.logger.Warn("write session summary", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// DebugObserver adapts the per-session debug logger to the controller's
// observer hook.
type DebugObserver struct {
	LogsDir string
	Logger  *zap.Logger
}

func (o *DebugObserver) GeneratorCall(sessionID string, round int, prompt interview.Prompt, resp interview.Response, elapsed time.Duration) {
	dl, err := debuglog.New(o.LogsDir, sessionID)
	if err != nil {
		if o.Logger != nil {
			o.Logger.Warn("open debug log", zap.String("session_id", sessionID), zap.Error(err))
		}
		return
	}
	if err := dl.LLMCall(round, resp.Model, prompt.System, prompt.User, resp.Text, elapsed, resp.InputTokens, resp.OutputTokens); err != nil {
		if o.Logger != nil {
			o.Logger.Warn("write debug log", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
}

// Shutdown drains in-flight requests on the standard http.Server with a
// bounded timeout.
func Shutdown(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
