package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
)

const (
	minReportItems = 2
	maxReportItems = 4
	maxScore       = 10
	closingLine    = "Thanks for practicing! Your detailed feedback report is ready."
)

// CompletedUtterance answers any turn received after the interview ended.
const CompletedUtterance = "This practice interview is already complete. Your feedback report is ready whenever you want to review it."

const feedbackInstruction = `The mock interview for the %s role is complete. Evaluate the candidate using the transcript in the details.
Return ONLY valid JSON, without markdown, in exactly this shape:
{
  "score": <number from 0 to 10>,
  "strengths": ["2 to 4 short, specific strengths"],
  "improvements": ["2 to 4 short, actionable improvement areas"],
  "summary": "two or three spoken sentences summarizing the performance, addressed to the candidate"
}
Base every point on what the candidate actually said. If the candidate barely answered, say so and score accordingly.`

type reportPayload struct {
	Score        float64  `mapstructure:"score"`
	Strengths    []string `mapstructure:"strengths"`
	Improvements []string `mapstructure:"improvements"`
	Summary      string   `mapstructure:"summary"`
}

// ParseReport decodes and validates the responder's JSON report.
func ParseReport(raw string) (Report, error) {
	var p reportPayload
	if err := ai.DecodeJSON(raw, &p, "score", "strengths", "improvements"); err != nil {
		return Report{}, err
	}

	if p.Score < 0 || p.Score > maxScore {
		return Report{}, fmt.Errorf("%w: score %v out of range", ai.ErrMalformedPayload, p.Score)
	}

	strengths := cleanItems(p.Strengths)
	improvements := cleanItems(p.Improvements)
	if len(strengths) < minReportItems || len(improvements) < minReportItems {
		return Report{}, fmt.Errorf("%w: need at least %d strengths and %d improvements, got %d and %d",
			ai.ErrMalformedPayload, minReportItems, minReportItems, len(strengths), len(improvements))
	}

	summary := strings.TrimSpace(p.Summary)
	if summary == "" {
		summary = defaultSummary
	}

	return Report{
		Score:        p.Score,
		Strengths:    strengths,
		Improvements: improvements,
		Summary:      summary,
	}, nil
}

func cleanItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(item), "-*• "))
		if item == "" {
			continue
		}
		out = append(out, item)
		if len(out) == maxReportItems {
			break
		}
	}
	return out
}

// defaultSummary stands in when the report comes without a summary.
const defaultSummary = "Thanks for working through this practice interview. Keep practicing with concrete examples and clear structure, and your answers will get even stronger."

// DefaultReport is the neutral report used when feedback generation fails.
func DefaultReport(role string) Report {
	return Report{
		Role:  role,
		Score: 5,
		Strengths: []string{
			"You completed the practice interview and engaged with the questions.",
			"You were willing to talk through your experience.",
		},
		Improvements: []string{
			"Support each answer with a concrete example from your own experience.",
			"Structure answers as situation, action and result to keep them focused.",
		},
		Summary:  defaultSummary,
		Fallback: true,
	}
}

// RenderTranscript formats the transcript as speaker-labelled lines.
func RenderTranscript(turns []Turn) string {
	var b strings.Builder
	for _, t := range turns {
		label := "Candidate"
		if t.Speaker == Interviewer {
			label = "Interviewer"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, t.Text)
	}
	return strings.TrimSpace(b.String())
}

func (e *Engine) generateFeedback(ctx context.Context, s State) (State, Utterance) {
	role := s.Role
	if role == "" {
		role = e.bank.DefaultRole()
	}

	report, err := e.buildReport(ctx, role, s.Transcript)
	if err != nil {
		e.logger.Warn("feedback generation failed, using default report", zap.Error(err))
		report = DefaultReport(role)
	}
	report.Role = role
	report.GeneratedAt = e.now()

	text := report.Summary + " " + closingLine

	s.Role = role
	s.say(Interviewer, text)
	s.Report = &report
	s.Finished = true

	return s, Utterance{Text: text, Fallback: report.Fallback}
}

func (e *Engine) buildReport(ctx context.Context, role string, transcript []Turn) (Report, error) {
	if e.responder == nil {
		return Report{}, errors.New("no responder configured")
	}

	octx, cancel := e.oracleContext(ctx)
	defer cancel()

	raw, err := e.responder.Respond(octx, fmt.Sprintf(feedbackInstruction, role), "Transcript:\n"+RenderTranscript(transcript))
	if err != nil {
		return Report{}, fmt.Errorf("generate report: %w", err)
	}

	return ParseReport(raw)
}
