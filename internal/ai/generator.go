// Package ai defines the text-oracle port used by the interview engine and
// helpers for turning loosely formatted model output into typed values.
package ai

import "context"

// Generator sends a system instruction and a single user message to a text
// model and returns its textual answer.
type Generator interface {
	GenerateContent(ctx context.Context, systemInstruction, message string) (string, error)
	Model() string
}
