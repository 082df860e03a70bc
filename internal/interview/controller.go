package interview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrSessionComplete is returned when a step is attempted on a finalized
// session. Completion is terminal; no further mutation is permitted.
var ErrSessionComplete = errors.New("interview session already complete")

// StepError wraps a failure inside one round step. The session snapshot is
// guaranteed unchanged when a StepError surfaces, so the caller may retry the
// same round with the same inputs.
type StepError struct {
	Stage string
	Err   error
}

func (e *StepError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StepError) Unwrap() error { return e.Err }

// Session is the full mutable state of one user's interview. Round is the
// round currently awaiting user answers; it only ever increases. Data always
// carries the taxonomy's exact key set and mutates only through Merge.
type Session struct {
	ID        string         `json:"session_id"`
	Profile   Profile        `json:"profile"`
	Round     int            `json:"round"`
	Data      map[string]any `json:"cumulative_data"`
	Score     int            `json:"score"`
	Complete  bool           `json:"complete"`
	Conflicts []string       `json:"conflicts"`
	Questions []Question     `json:"questions"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewSession creates a session at round 1 with every taxonomy field nil.
func NewSession(id string, profile Profile, cfg TierConfig, now time.Time) *Session {
	return &Session{
		ID:        id,
		Profile:   profile,
		Round:     1,
		Data:      cfg.InitialData(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy. Stores hand out clones so a failed step can
// never leave a half-applied snapshot behind.
func (s *Session) Clone() *Session {
	out := *s
	out.Data = make(map[string]any, len(s.Data))
	for k, v := range s.Data {
		out.Data[k] = v
	}
	out.Conflicts = append([]string(nil), s.Conflicts...)
	out.Questions = append([]Question(nil), s.Questions...)
	return &out
}

// StepResult is the tagged outcome of one round: either continue with the
// next batch of questions, or complete with the final data. Round is the
// round the returned questions belong to, or the final round on completion.
type StepResult struct {
	Complete  bool
	Round     int
	Questions []Question
	Data      map[string]any
	Score     int
	Scoring   ScoringResult
	Reason    string
	Conflicts []string
}

// StepObserver receives per-step accounting, used for debug logging.
type StepObserver interface {
	GeneratorCall(sessionID string, round int, prompt Prompt, resp Response, elapsed time.Duration)
}

// Controller runs one interview round at a time. It is a synchronous step
// function with no hidden state: replaying a step with an identical session
// snapshot and service response yields an identical output snapshot.
type Controller struct {
	gen      Generator
	cfg      TierConfig
	tracer   trace.Tracer
	observer StepObserver
	now      func() time.Time
}

type ControllerOption func(*Controller)

// WithObserver attaches a per-step observer (debug logging).
func WithObserver(obs StepObserver) ControllerOption {
	return func(c *Controller) { c.observer = obs }
}

// WithClock overrides the controller's clock, for tests.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

func NewController(gen Generator, cfg TierConfig, opts ...ControllerOption) *Controller {
	c := &Controller{
		gen:    gen,
		cfg:    cfg,
		tracer: otel.Tracer("interview"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Config() TierConfig { return c.cfg }

// Start generates the opening round of questions for a fresh session. The
// round number is not advanced: the session keeps awaiting round-1 answers.
func (c *Controller) Start(ctx context.Context, s *Session) (StepResult, error) {
	return c.step(ctx, s, nil, false)
}

// Submit folds the answers to the session's current round into the record,
// asks the generation service for the next round, and decides completion.
// On continue the round number advances; on completion the session freezes.
func (c *Controller) Submit(ctx context.Context, s *Session, answers map[string]any) (StepResult, error) {
	return c.step(ctx, s, answers, true)
}

// step is the single synchronous round function. On any error the session is
// left exactly at its pre-step snapshot and no round number is consumed.
func (c *Controller) step(ctx context.Context, s *Session, answers map[string]any, advance bool) (StepResult, error) {
	ctx, span := c.tracer.Start(ctx, "interview.step",
		trace.WithAttributes(
			attribute.String("session.id", s.ID),
			attribute.Int("session.round", s.Round),
		))
	defer span.End()

	if s.Complete {
		span.SetStatus(codes.Error, ErrSessionComplete.Error())
		return StepResult{}, ErrSessionComplete
	}

	// Everything below works on a scratch copy until the commit at the end.
	merged := Merge(c.cfg, s.Data, answers)

	prompt := Prompt{
		System: BuildSystemPrompt(s.Profile),
		User:   BuildUserPrompt(s.Round, merged, answers),
	}

	started := c.now()
	resp, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate failed")
		return StepResult{}, &StepError{Stage: "generate", Err: err}
	}
	if c.observer != nil {
		c.observer.GeneratorCall(s.ID, s.Round, prompt, resp, c.now().Sub(started))
	}

	env, err := ParseEnvelope(resp.Text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return StepResult{}, &StepError{Stage: "parse", Err: err}
	}

	// The envelope's data is authoritative for the fields it set, folded on
	// top of the user answers by the same merge rules.
	merged = Merge(c.cfg, merged, env.Data)

	scoring := Score(merged, s.Profile, c.cfg)
	decision := Decide(scoring, s.Round, env.State.ConflictsDetected, c.cfg)

	s.Data = merged
	s.Score = scoring.Score
	s.Conflicts = append([]string(nil), env.State.ConflictsDetected...)
	s.UpdatedAt = c.now()

	result := StepResult{
		Data:      merged,
		Score:     scoring.Score,
		Scoring:   scoring,
		Reason:    decision.Reason,
		Conflicts: s.Conflicts,
	}

	if decision.Complete {
		s.Complete = true
		s.Questions = nil
		result.Complete = true
		result.Round = s.Round
		span.SetAttributes(attribute.Bool("interview.complete", true), attribute.Int("interview.score", scoring.Score))
		return result, nil
	}

	if advance {
		s.Round++
	}
	s.Questions = env.Questions
	result.Round = s.Round
	result.Questions = env.Questions
	span.SetAttributes(attribute.Int("interview.score", scoring.Score))
	return result, nil
}
