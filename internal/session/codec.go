package session

import (
	"encoding/json"
	"fmt"

	"github.com/spigell/interview-coach/internal/interview"
)

func encodeState(id string, state interview.State) (string, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("encode session %s: %w", id, err)
	}
	return string(data), nil
}

func decodeState(id, data string) (*interview.State, error) {
	var state interview.State
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &state, nil
}
