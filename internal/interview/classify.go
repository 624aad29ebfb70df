package interview

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/utils"
)

// Source tells where a classification came from.
type Source string

const (
	SourceOracle       Source = "oracle"
	SourceFallback     Source = "fallback"
	SourceShortCircuit Source = "short_circuit"
	SourceEmpty        Source = "empty"
)

// Classification is the outcome of the classification step. The fallback path
// is visible through Source instead of being hidden behind an error.
type Classification struct {
	Persona    Persona    `json:"persona"`
	Evaluation Evaluation `json:"evaluation"`
	Source     Source     `json:"source"`
	// FirstTurnOverride is set when a non-Good evaluation was replaced with
	// Good because no primary question has been asked yet.
	FirstTurnOverride bool `json:"first_turn_override,omitempty"`
}

// introductionTopic is the classification anchor before any question is asked.
const introductionTopic = "introduction"

var terminationPhrases = []string{
	"stop the interview",
	"end the interview",
	"finish the interview",
	"stop interview",
	"end interview",
	"end this interview",
	"stop this interview",
	"end the session",
	"stop the session",
	"let's stop here",
	"let's end here",
	"that's enough for today",
	"i'm done with the interview",
}

var terminationWords = []string{"stop", "quit", "exit", "end", "goodbye", "bye"}

// terminationLeadIns may precede a termination request: "please, can we end
// the interview" is still a request to stop.
var terminationLeadIns = []string{
	"ok", "okay", "please", "sorry", "can we", "could we", "can you", "could you",
	"let's", "lets", "i want to", "i'd like to", "i would like to", "i need to",
}

const (
	// maxShortTermination is the longest utterance, in words, that ends the
	// interview just by containing a termination phrase.
	maxShortTermination = 8
	// maxWordTail is how many words may follow a bare termination word.
	maxWordTail = 2
)

// IsTermination reports whether the utterance is an explicit request to end
// the interview. Answers that merely mention a stop phrase are not requests
// and go to the classifier.
func IsTermination(utterance string) bool {
	normalized := utils.NormalizeText(utterance)
	if normalized == "" {
		return false
	}

	request := trimLeadIns(normalized)
	for _, phrase := range terminationPhrases {
		if hasPhrasePrefix(request, phrase) {
			return true
		}
	}

	words := strings.Fields(request)
	for _, w := range terminationWords {
		if words[0] == w && len(words)-1 <= maxWordTail {
			return true
		}
	}

	if len(strings.Fields(normalized)) > maxShortTermination {
		return false
	}
	for _, phrase := range terminationPhrases {
		if utils.ContainsPhrase(normalized, phrase) {
			return true
		}
	}

	return false
}

func trimLeadIns(s string) string {
	for {
		trimmed := s
		for _, lead := range terminationLeadIns {
			if rest, ok := strings.CutPrefix(s, lead+" "); ok {
				trimmed = rest
				break
			}
		}
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

func hasPhrasePrefix(s, phrase string) bool {
	return s == phrase || strings.HasPrefix(s, phrase+" ")
}

func (e *Engine) classify(ctx context.Context, s State, utterance string) Classification {
	if IsTermination(utterance) {
		return Classification{Persona: EndSession, Evaluation: Good, Source: SourceShortCircuit}
	}

	c := Classification{Persona: Normal, Evaluation: Good, Source: SourceFallback}

	switch {
	case strings.TrimSpace(utterance) == "":
		c = Classification{Persona: Normal, Evaluation: Vague, Source: SourceEmpty}
	case e.classifier == nil:
		e.logger.Debug("no classifier configured, using neutral classification")
	default:
		topic := s.ActiveTopic
		if topic == "" {
			topic = introductionTopic
		}

		octx, cancel := e.oracleContext(ctx)
		verdict, err := e.classifier.Classify(octx, ClassifyRequest{
			ActiveTopic: topic,
			Role:        s.Role,
			LastPrompt:  s.LastPrompt,
			Utterance:   utterance,
		})
		cancel()

		if err == nil {
			err = verdict.validate()
		}

		if err != nil {
			e.logger.Warn("classification failed, falling back to neutral classification", zap.Error(err))
		} else {
			c = Classification{Persona: verdict.Persona, Evaluation: verdict.Evaluation, Source: SourceOracle}
		}
	}

	if s.QuestionsAsked == 0 && c.Evaluation != Good {
		c.Evaluation = Good
		c.FirstTurnOverride = true
	}

	return c
}
