package interview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/questions"
)

var errOracleDown = errors.New("oracle unavailable")

const validReportJSON = "```json\n" + `{"score": "7.5", "strengths": ["Clear structure", "Concrete examples"], "improvements": ["Quantify results", "Be more concise"], "summary": "Solid interview overall."}` + "\n```"

type stubClassifier struct {
	mu       sync.Mutex
	requests []ClassifyRequest
	fn       func(ClassifyRequest) (Verdict, error)
}

func classifierReturning(p Persona, e Evaluation) *stubClassifier {
	return &stubClassifier{fn: func(ClassifyRequest) (Verdict, error) {
		return Verdict{Persona: p, Evaluation: e}, nil
	}}
}

func (c *stubClassifier) Classify(_ context.Context, req ClassifyRequest) (Verdict, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	fn := c.fn
	c.mu.Unlock()

	if fn == nil {
		return Verdict{Persona: Normal, Evaluation: Good}, nil
	}
	return fn(req)
}

func (c *stubClassifier) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

type respondCall struct {
	instruction string
	details     string
}

type stubResponder struct {
	mu     sync.Mutex
	calls  []respondCall
	text   string
	report string
	err    error
}

func (r *stubResponder) Respond(_ context.Context, instruction, details string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, respondCall{instruction: instruction, details: details})

	if r.err != nil {
		return "", r.err
	}
	if isFeedbackInstruction(instruction) {
		if r.report == "" {
			return validReportJSON, nil
		}
		return r.report, nil
	}
	if r.text == "" {
		return "Could you tell me a bit more about that?", nil
	}
	return r.text, nil
}

func isFeedbackInstruction(instruction string) bool {
	return strings.HasPrefix(instruction, "The mock interview for the")
}

// firstPicker always picks the first eligible question.
type firstPicker struct{}

func (firstPicker) IntN(int) int { return 0 }

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, classifier Classifier, responder Responder) *Engine {
	t.Helper()

	bank, err := questions.Default()
	if err != nil {
		t.Fatalf("load question bank: %v", err)
	}

	engine, err := New(Config{
		Limits:     DefaultLimits(),
		Bank:       bank,
		Picker:     firstPicker{},
		Classifier: classifier,
		Responder:  responder,
		Logger:     zap.NewNop(),
		Now:        func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	return engine
}

// midInterview returns a Software Engineer state with one primary question
// asked.
func midInterview(topic string) State {
	return State{
		Transcript: []Turn{
			{Speaker: Interviewer, Text: RolePrompt},
			{Speaker: Candidate, Text: "Software Engineer"},
			{Speaker: Interviewer, Text: topic},
		},
		Role:           "Software Engineer",
		RolePrompted:   true,
		QuestionsAsked: 1,
		UsedQuestions:  []string{topic},
		ActiveTopic:    topic,
		LastPrompt:     topic,
	}
}
