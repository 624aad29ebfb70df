package interview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/questions"
)

const tracerName = "github.com/spigell/interview-coach/internal/interview"

// DefaultOracleTimeout bounds one classifier or responder call.
const DefaultOracleTimeout = 20 * time.Second

// Config holds the dependencies of an Engine. Classifier and Responder may be
// nil, in which case every turn takes the fallback path.
type Config struct {
	Limits        Limits
	OracleTimeout time.Duration
	Bank          *questions.Bank
	Picker        questions.Picker
	Classifier    Classifier
	Responder     Responder
	Logger        *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Engine runs the classify, route, act cycle for one turn at a time. It keeps
// no per-session state and is safe for concurrent use.
type Engine struct {
	bank          *questions.Bank
	picker        questions.Picker
	classifier    Classifier
	responder     Responder
	logger        *zap.Logger
	limits        Limits
	oracleTimeout time.Duration
	now           func() time.Time
	tracer        trace.Tracer
}

// Outcome is the result of processing one candidate turn.
type Outcome struct {
	State          State
	Utterance      Utterance
	Action         Action
	Classification Classification
}

// New validates cfg and builds an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Bank == nil {
		return nil, errors.New("question bank is required")
	}

	limits := cfg.Limits
	if limits == (Limits{}) {
		limits = DefaultLimits()
	}
	if err := limits.Validate(); err != nil {
		return nil, fmt.Errorf("invalid limits: %w", err)
	}

	e := &Engine{
		bank:          cfg.Bank,
		picker:        cfg.Picker,
		classifier:    cfg.Classifier,
		responder:     cfg.Responder,
		logger:        cfg.Logger,
		limits:        limits,
		oracleTimeout: cfg.OracleTimeout,
		now:           cfg.Now,
		tracer:        otel.Tracer(tracerName),
	}

	if e.picker == nil {
		e.picker = questions.NewPicker(0)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.oracleTimeout <= 0 {
		e.oracleTimeout = DefaultOracleTimeout
	}
	if e.now == nil {
		e.now = time.Now
	}

	return e, nil
}

// Limits returns the limits the engine enforces.
func (e *Engine) Limits() Limits {
	return e.limits
}

// Bank returns the question bank used by the engine.
func (e *Engine) Bank() *questions.Bank {
	return e.bank
}

// NewState returns an empty session state.
func (e *Engine) NewState() State {
	now := e.now()
	return State{CreatedAt: now, UpdatedAt: now}
}

// NewSession returns a state that already greets the candidate with the role
// question.
func (e *Engine) NewSession() (State, Utterance) {
	s := e.NewState()
	s.RolePrompted = true
	s.say(Interviewer, RolePrompt)
	return s, Utterance{Text: RolePrompt}
}

func (e *Engine) oracleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.oracleTimeout)
}

// Process handles one candidate utterance. The given state is never modified;
// the returned Outcome carries the next state.
func (e *Engine) Process(ctx context.Context, current State, utterance string) Outcome {
	ctx, span := e.tracer.Start(ctx, "interview.Process")
	defer span.End()

	s := current.Clone()
	if s.Finished {
		span.SetAttributes(attribute.String("interview.action", string(Completed)))
		return Outcome{
			State:     s,
			Utterance: Utterance{Text: CompletedUtterance},
			Action:    Completed,
		}
	}

	if s.CreatedAt.IsZero() {
		s.CreatedAt = e.now()
	}

	s.say(Candidate, utterance)
	s = e.resolveRole(s, utterance)

	c := e.classify(ctx, s, utterance)
	s.Persona = c.Persona
	s.Evaluation = c.Evaluation

	action := Route(s, e.limits)

	var u Utterance
	switch action {
	case AskNewQuestion:
		s, u = e.askNewQuestion(ctx, s)
	case AskFollowUp:
		s, u = e.askFollowUp(ctx, s)
	case GenerateFeedback:
		s, u = e.generateFeedback(ctx, s)
	default:
		s, u = e.handleSpecial(ctx, s)
	}

	s.LastAction = action
	s.UpdatedAt = e.now()

	span.SetAttributes(
		attribute.String("interview.role", s.Role),
		attribute.String("interview.persona", string(c.Persona)),
		attribute.String("interview.evaluation", string(c.Evaluation)),
		attribute.String("interview.classification_source", string(c.Source)),
		attribute.String("interview.action", string(action)),
		attribute.Int("interview.questions_asked", s.QuestionsAsked),
		attribute.Bool("interview.fallback", u.Fallback),
	)

	e.logger.Info("turn processed",
		zap.String("role", s.Role),
		zap.String("persona", string(c.Persona)),
		zap.String("evaluation", string(c.Evaluation)),
		zap.String("source", string(c.Source)),
		zap.String("action", string(action)),
		zap.Int("questions_asked", s.QuestionsAsked),
		zap.Int("retry_count", s.RetryCount),
		zap.Int("topic_depth", s.TopicDepth),
		zap.Bool("finished", s.Finished),
	)

	return Outcome{State: s, Utterance: u, Action: action, Classification: c}
}

// resolveRole sets the role once. An unmatched answer to the role question
// selects the default role.
func (e *Engine) resolveRole(s State, utterance string) State {
	if s.Role != "" {
		return s
	}

	if role, ok := e.bank.MatchRole(utterance); ok {
		s.Role = role
		e.logger.Debug("role selected", zap.String("role", role))
		return s
	}

	if s.RolePrompted && !IsTermination(utterance) {
		s.Role = e.bank.DefaultRole()
		e.logger.Info("role not recognized, using default role", zap.String("role", s.Role))
	}

	return s
}
