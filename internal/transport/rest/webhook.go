package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/logger"
)

const fallbackToolCallID = "fallback"

type conversationEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type toolCall struct {
	ID       string `json:"id"`
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

// webhookPayload is the subset of a voice-agent tool-call request the
// interview needs.
type webhookPayload struct {
	Message struct {
		ToolCall     *toolCall           `json:"toolCall"`
		ToolCallList []toolCall          `json:"toolCallList"`
		Conversation []conversationEntry `json:"conversation"`
		Call         struct {
			ID string `json:"id"`
		} `json:"call"`
	} `json:"message"`
	CallID       string              `json:"call_id"`
	Conversation []conversationEntry `json:"conversation"`
}

type webhookResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result"`
}

type webhookResponse struct {
	Results []webhookResult `json:"results"`
}

func (p *webhookPayload) toolCall() *toolCall {
	if p.Message.ToolCall != nil {
		return p.Message.ToolCall
	}
	if len(p.Message.ToolCallList) > 0 {
		return &p.Message.ToolCallList[0]
	}
	return nil
}

func (p *webhookPayload) toolCallID() string {
	if tc := p.toolCall(); tc != nil && tc.ID != "" {
		return tc.ID
	}
	return fallbackToolCallID
}

func (p *webhookPayload) sessionID(fallback string) string {
	if id := strings.TrimSpace(p.Message.Call.ID); id != "" {
		return id
	}
	if id := strings.TrimSpace(p.CallID); id != "" {
		return id
	}
	return fallback
}

func (p *webhookPayload) conversation() []conversationEntry {
	if len(p.Conversation) > 0 {
		return p.Conversation
	}
	return p.Message.Conversation
}

// utterance prefers the tool-call argument and falls back to the last user
// entry of the conversation.
func (p *webhookPayload) utterance() string {
	if tc := p.toolCall(); tc != nil {
		if u := argumentUtterance(tc.Function.Arguments); u != "" {
			return u
		}
	}

	conv := p.conversation()
	for i := len(conv) - 1; i >= 0; i-- {
		if conv[i].Role == "user" && strings.TrimSpace(conv[i].Content) != "" {
			return strings.TrimSpace(conv[i].Content)
		}
	}
	return ""
}

// argumentUtterance reads the utterance argument, which agents send either as
// an object or as a JSON encoded string.
func argumentUtterance(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return ""
		}
		raw = []byte(encoded)
	}

	var args struct {
		Utterance string `json:"utterance"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return ""
	}
	return strings.TrimSpace(args.Utterance)
}

// Webhook handles POST /webhook. The reply is always a tool result so the
// voice agent has something to say.
func (h *handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payload); err != nil {
		h.logger.Warn("decoding webhook payload", zap.Error(err))
		writeJSON(w, http.StatusOK, webhookResponse{Results: []webhookResult{{ToolCallID: fallbackToolCallID, Result: GlitchReply}}})
		return
	}

	id := payload.sessionID(h.defaultSession)
	toolCallID := payload.toolCallID()
	log := logger.WithSession(h.logger, id, "")

	reply := func(text string) {
		writeJSON(w, http.StatusOK, webhookResponse{Results: []webhookResult{{ToolCallID: toolCallID, Result: text}}})
	}

	utterance := payload.utterance()
	if utterance == "" && len(payload.conversation()) == 0 {
		_, greeting, err := h.sessions.Start(r.Context(), id)
		if err != nil {
			log.Error("starting session", zap.Error(err))
			reply(GlitchReply)
			return
		}
		reply(greeting.Text)
		return
	}

	out, err := h.sessions.ProcessTurn(r.Context(), id, utterance)
	if err != nil {
		log.Error("processing webhook turn", zap.Error(err))
		reply(GlitchReply)
		return
	}

	reply(out.Utterance.Text)
}
