package interview

import "fmt"

// Action is the step the engine takes after classifying a turn.
type Action string

const (
	AskNewQuestion   Action = "AskNewQuestion"
	AskFollowUp      Action = "AskFollowUp"
	HandleSpecial    Action = "HandleSpecial"
	GenerateFeedback Action = "GenerateFeedback"
	// Completed is reported for turns received after the interview finished.
	Completed Action = "Completed"
)

// Limits bound the length of an interview.
type Limits struct {
	// SessionLimit is the number of primary questions before feedback.
	SessionLimit int
	// RetryLimit is the number of consecutive special-handling turns allowed
	// on one topic before moving on.
	RetryLimit int
	// MaxDepth is the number of follow-ups allowed per primary question.
	MaxDepth int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{SessionLimit: 5, RetryLimit: 2, MaxDepth: 1}
}

// Validate checks that the limits allow an interview to make progress.
func (l Limits) Validate() error {
	if l.SessionLimit < 1 {
		return fmt.Errorf("session limit must be positive, got %d", l.SessionLimit)
	}
	if l.RetryLimit < 1 {
		return fmt.Errorf("retry limit must be positive, got %d", l.RetryLimit)
	}
	if l.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative, got %d", l.MaxDepth)
	}
	return nil
}

// MaxTurns is the upper bound of candidate turns in one interview. Choosing
// the role takes at most two turns. On every primary question but the last one
// each depth level absorbs at most RetryLimit redirections plus the turn that
// asks a follow-up or moves on; the answer to the last question ends the
// interview.
func (l Limits) MaxTurns() int {
	perQuestion := (l.MaxDepth + 1) * (l.RetryLimit + 1)
	return 2 + (l.SessionLimit-1)*perQuestion + 1
}

// Route picks the action for a classified state. Rules are evaluated in order
// and the first match wins.
func Route(s State, l Limits) Action {
	switch {
	case s.Persona == EndSession:
		return GenerateFeedback
	case s.Role == "":
		return AskNewQuestion
	case s.QuestionsAsked == 0:
		return AskNewQuestion
	case s.QuestionsAsked >= l.SessionLimit:
		return GenerateFeedback
	case s.RetryCount >= l.RetryLimit:
		return AskNewQuestion
	case s.Persona.needsSpecialHandling(), s.Evaluation == Vague, s.Evaluation == OffTopic:
		return HandleSpecial
	case s.Evaluation == Good:
		if s.Persona == Efficient || s.TopicDepth >= l.MaxDepth {
			return AskNewQuestion
		}
		return AskFollowUp
	default:
		return HandleSpecial
	}
}
