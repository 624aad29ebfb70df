package interview

import (
	"fmt"
	"strings"
)

// Persona is the classified conversational stance of the candidate.
type Persona string

const (
	Normal     Persona = "Normal"
	Confused   Persona = "Confused"
	Distracted Persona = "Distracted"
	Efficient  Persona = "Efficient"
	Edge       Persona = "Edge"
	Resisting  Persona = "Resisting"
	EndSession Persona = "End_Session"
)

// Evaluation is the classified quality of the latest answer.
type Evaluation string

const (
	Good     Evaluation = "Good"
	Vague    Evaluation = "Vague"
	OffTopic Evaluation = "Off-topic"
)

var personaAliases = map[string]Persona{
	"normal":     Normal,
	"confused":   Confused,
	"distracted": Distracted,
	"chatty":     Distracted,
	"efficient":  Efficient,
	"edge":       Edge,
	"resisting":  Resisting,
	"endsession": EndSession,
}

var evaluationAliases = map[string]Evaluation{
	"good":     Good,
	"vague":    Vague,
	"offtopic": OffTopic,
}

func enumKey(s string) string {
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(s)))
}

// ParsePersona maps free text onto the closed persona set.
func ParsePersona(s string) (Persona, error) {
	if p, ok := personaAliases[enumKey(s)]; ok {
		return p, nil
	}
	return "", fmt.Errorf("unknown persona %q", s)
}

// ParseEvaluation maps free text onto the closed evaluation set.
func ParseEvaluation(s string) (Evaluation, error) {
	if e, ok := evaluationAliases[enumKey(s)]; ok {
		return e, nil
	}
	return "", fmt.Errorf("unknown evaluation %q", s)
}

// Valid reports whether p is one of the canonical persona values.
func (p Persona) Valid() bool {
	switch p {
	case Normal, Confused, Distracted, Efficient, Edge, Resisting, EndSession:
		return true
	default:
		return false
	}
}

// Valid reports whether e is one of the canonical evaluation values.
func (e Evaluation) Valid() bool {
	switch e {
	case Good, Vague, OffTopic:
		return true
	default:
		return false
	}
}

// needsSpecialHandling reports personas that are always redirected.
func (p Persona) needsSpecialHandling() bool {
	switch p {
	case Confused, Distracted, Edge, Resisting:
		return true
	default:
		return false
	}
}
