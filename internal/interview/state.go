package interview

import (
	"slices"
	"time"
)

// Speaker identifies who produced a transcript turn.
type Speaker string

const (
	Candidate   Speaker = "candidate"
	Interviewer Speaker = "interviewer"
)

// Turn is one transcript entry.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Report is the closing evaluation of a finished interview.
type Report struct {
	Role         string    `json:"role"`
	Score        float64   `json:"score"`
	Strengths    []string  `json:"strengths"`
	Improvements []string  `json:"improvements"`
	Summary      string    `json:"summary"`
	Fallback     bool      `json:"fallback,omitempty"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// State is the progress record of one interview. It is treated as a value:
// the engine never mutates the State it is given and returns a new one.
type State struct {
	Transcript     []Turn     `json:"transcript"`
	Role           string     `json:"role,omitempty"`
	RolePrompted   bool       `json:"role_prompted,omitempty"`
	QuestionsAsked int        `json:"questions_asked"`
	UsedQuestions  []string   `json:"used_question_ids"`
	ActiveTopic    string     `json:"active_topic,omitempty"`
	LastPrompt     string     `json:"last_prompt,omitempty"`
	Persona        Persona    `json:"persona,omitempty"`
	Evaluation     Evaluation `json:"evaluation,omitempty"`
	RetryCount     int        `json:"retry_count"`
	TopicDepth     int        `json:"topic_depth"`
	LastAction     Action     `json:"last_action,omitempty"`
	Finished       bool       `json:"finished"`
	Report         *Report    `json:"report,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	c := s
	c.Transcript = slices.Clone(s.Transcript)
	c.UsedQuestions = slices.Clone(s.UsedQuestions)
	if s.Report != nil {
		r := *s.Report
		r.Strengths = slices.Clone(s.Report.Strengths)
		r.Improvements = slices.Clone(s.Report.Improvements)
		c.Report = &r
	}
	return c
}

// LastUtterance returns the text of the most recent turn by speaker.
func (s State) LastUtterance(speaker Speaker) string {
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		if s.Transcript[i].Speaker == speaker {
			return s.Transcript[i].Text
		}
	}
	return ""
}

func (s *State) say(speaker Speaker, text string) {
	s.Transcript = append(s.Transcript, Turn{Speaker: speaker, Text: text})
}

func (s *State) markUsed(question string) {
	if !slices.Contains(s.UsedQuestions, question) {
		s.UsedQuestions = append(s.UsedQuestions, question)
	}
}
