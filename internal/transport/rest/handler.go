package rest

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/session"
)

// GlitchReply is spoken instead of raw error text when a turn fails.
const GlitchReply = "Sorry, I'm having a small technical glitch. Could you say that again?"

const (
	statusCompleted  = "Completed"
	statusInProgress = "InProgress"
)

type handler struct {
	sessions       *session.Manager
	defaultSession string
	logger         *zap.Logger
}

func newHandler(c *Container) *handler {
	h := &handler{
		sessions:       c.Sessions,
		defaultSession: c.DefaultSession,
		logger:         c.Logger,
	}
	if h.defaultSession == "" {
		h.defaultSession = DefaultSession
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

type turnResponse struct {
	SessionID      string `json:"session_id"`
	Utterance      string `json:"utterance"`
	Action         string `json:"action,omitempty"`
	Finished       bool   `json:"finished"`
	QuestionsAsked int    `json:"questions_asked"`
	Fallback       bool   `json:"fallback,omitempty"`
}

func newTurnResponse(id string, out interview.Outcome) turnResponse {
	return turnResponse{
		SessionID:      id,
		Utterance:      out.Utterance.Text,
		Action:         string(out.Action),
		Finished:       out.State.Finished,
		QuestionsAsked: out.State.QuestionsAsked,
		Fallback:       out.Utterance.Fallback,
	}
}

type feedbackResponse struct {
	Status     string            `json:"status"`
	Feedback   *interview.Report `json:"feedback,omitempty"`
	Transcript []interview.Turn  `json:"transcript"`
}

func newFeedbackResponse(s *interview.State) feedbackResponse {
	resp := feedbackResponse{Status: statusInProgress, Transcript: s.Transcript}
	if s.Finished && s.Report != nil {
		resp.Status = statusCompleted
		resp.Feedback = s.Report
	}
	if resp.Transcript == nil {
		resp.Transcript = []interview.Turn{}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (h *handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
