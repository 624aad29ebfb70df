package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/utils"
)

//go:embed prompts/classify.md
var classifyTemplate string

//go:embed prompts/interviewer.md
var interviewerPrompt string

const (
	defaultMaxLogLength   = 200
	maxClassifyInputRunes = 2000
)

// OracleClassifier implements Classifier on top of a text generator.
type OracleClassifier struct {
	generator ai.Generator
	logger    *zap.Logger
	maxLogLen int
}

// NewOracleClassifier wraps generator as a Classifier.
func NewOracleClassifier(generator ai.Generator, maxLogLength int, logger *zap.Logger) *OracleClassifier {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OracleClassifier{generator: generator, logger: logger, maxLogLen: maxLogLength}
}

// Classify asks the generator for a persona and evaluation verdict. Any
// answer outside the closed sets is an error.
func (c *OracleClassifier) Classify(ctx context.Context, req ClassifyRequest) (Verdict, error) {
	if c == nil || c.generator == nil {
		return Verdict{}, errors.New("classifier generator is not configured")
	}

	system := buildClassifyPrompt(req)
	message := "<reply>" + sanitizeReply(req.Utterance) + "</reply>"

	raw, err := c.generator.GenerateContent(ctx, system, message)
	if err != nil {
		return Verdict{}, fmt.Errorf("classify: %w", err)
	}

	c.logger.Debug("classifier response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, c.maxLogLen)),
	)

	return ParseVerdict(raw)
}

func buildClassifyPrompt(req ClassifyRequest) string {
	role := req.Role
	if role == "" {
		role = "not chosen yet"
	}
	topic := req.ActiveTopic
	if topic == "" {
		topic = introductionTopic
	}
	last := req.LastPrompt
	if last == "" {
		last = topic
	}

	return strings.NewReplacer(
		"{{ROLE}}", role,
		"{{TOPIC}}", topic,
		"{{LAST_PROMPT}}", last,
	).Replace(classifyTemplate)
}

// sanitizeReply keeps the candidate text from closing the data envelope.
func sanitizeReply(s string) string {
	s = strings.NewReplacer("<reply>", "", "</reply>", "", "[", "(", "]", ")").Replace(s)
	if utf8.RuneCountInString(s) > maxClassifyInputRunes {
		s = string([]rune(s)[:maxClassifyInputRunes])
	}
	return strings.TrimSpace(s)
}

type verdictPayload struct {
	Persona    string `mapstructure:"persona"`
	Evaluation string `mapstructure:"evaluation"`
}

// ParseVerdict decodes a classifier answer strictly.
func ParseVerdict(raw string) (Verdict, error) {
	var p verdictPayload
	if err := ai.DecodeJSON(raw, &p, "persona", "evaluation"); err != nil {
		return Verdict{}, err
	}

	persona, err := ParsePersona(p.Persona)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ai.ErrMalformedPayload, err)
	}

	evaluation, err := ParseEvaluation(p.Evaluation)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ai.ErrMalformedPayload, err)
	}

	return Verdict{Persona: persona, Evaluation: evaluation}, nil
}

// OracleResponder implements Responder on top of a text generator.
type OracleResponder struct {
	generator ai.Generator
	logger    *zap.Logger
	maxLogLen int
}

// NewOracleResponder wraps generator as a Responder.
func NewOracleResponder(generator ai.Generator, maxLogLength int, logger *zap.Logger) *OracleResponder {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OracleResponder{generator: generator, logger: logger, maxLogLen: maxLogLength}
}

// Respond generates interviewer speech for instruction. The result is
// stripped of quotes, fences and speaker labels.
func (r *OracleResponder) Respond(ctx context.Context, instruction, details string) (string, error) {
	if r == nil || r.generator == nil {
		return "", errors.New("responder generator is not configured")
	}

	message := "Task:\n" + strings.TrimSpace(instruction)
	if details = strings.TrimSpace(details); details != "" {
		message += "\n\nDetails:\n" + details
	}

	raw, err := r.generator.GenerateContent(ctx, interviewerPrompt, message)
	if err != nil {
		return "", fmt.Errorf("respond: %w", err)
	}

	r.logger.Debug("responder response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, r.maxLogLen)),
	)

	text := ai.CleanUtterance(raw)
	if text == "" {
		return "", errors.New("respond: empty response")
	}

	return text, nil
}
