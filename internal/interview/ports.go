package interview

import (
	"context"
	"fmt"
)

// ClassifyRequest is the minimal context sent to the classifier for one turn.
type ClassifyRequest struct {
	ActiveTopic string
	Role        string
	LastPrompt  string
	Utterance   string
}

// Verdict is a classifier answer. Both fields must belong to the closed sets.
type Verdict struct {
	Persona    Persona
	Evaluation Evaluation
}

func (v Verdict) validate() error {
	if !v.Persona.Valid() {
		return fmt.Errorf("invalid persona %q", v.Persona)
	}
	if !v.Evaluation.Valid() {
		return fmt.Errorf("invalid evaluation %q", v.Evaluation)
	}
	return nil
}

// Classifier labels the candidate's latest utterance.
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (Verdict, error)
}

// Responder turns an instruction plus conversation details into text to speak.
type Responder interface {
	Respond(ctx context.Context, instruction, details string) (string, error)
}
