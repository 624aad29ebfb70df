package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/session"
)

const maxBodyBytes = 64 << 10

type turnRequest struct {
	Utterance string `json:"utterance"`
}

// CreateSession handles POST /v1/sessions
func (h *handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, greeting, err := h.sessions.Create(r.Context())
	if err != nil {
		h.logger.Error("creating session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	writeJSON(w, http.StatusCreated, turnResponse{SessionID: id, Utterance: greeting.Text})
}

// Turn handles POST /v1/sessions/{id}/turns
func (h *handler) Turn(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req turnRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.sessions.ProcessTurn(r.Context(), id, strings.TrimSpace(req.Utterance))
	if err != nil {
		logger.WithSession(h.logger, id, "").Error("processing turn", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, turnResponse{SessionID: id, Utterance: GlitchReply, Fallback: true})
		return
	}

	writeJSON(w, http.StatusOK, newTurnResponse(id, out))
}

// GetSession handles GET /v1/sessions/{id}
func (h *handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	state, ok := h.load(w, r, id)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// DeleteSession handles DELETE /v1/sessions/{id}
func (h *handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.sessions.Delete(r.Context(), id); err != nil {
		logger.WithSession(h.logger, id, "").Error("deleting session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Report handles GET /v1/sessions/{id}/report
func (h *handler) Report(w http.ResponseWriter, r *http.Request) {
	h.feedback(w, r, mux.Vars(r)["id"])
}

// LatestFeedback handles GET /get-latest-feedback?call_id=
func (h *handler) LatestFeedback(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("call_id"))
	if id == "" {
		id = h.defaultSession
	}
	h.feedback(w, r, id)
}

func (h *handler) feedback(w http.ResponseWriter, r *http.Request, id string) {
	state, ok := h.load(w, r, id)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, newFeedbackResponse(state))
}

func (h *handler) load(w http.ResponseWriter, r *http.Request, id string) (*interview.State, bool) {
	state, err := h.sessions.Get(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	if err != nil {
		logger.WithSession(h.logger, id, "").Error("loading session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load session")
		return nil, false
	}
	return state, true
}
