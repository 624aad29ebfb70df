package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 5 * time.Minute
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Stream handles GET /v1/sessions/{id}/ws. Every text frame is one candidate
// turn and every reply is a JSON turn result.
func (h *handler) Stream(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	log := logger.WithSession(h.logger, id, "")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx := r.Context()

	state, greeting, err := h.sessions.Start(ctx, id)
	if err != nil {
		log.Error("starting session", zap.Error(err))
		_ = send(conn, turnResponse{SessionID: id, Utterance: GlitchReply, Fallback: true})
		return
	}
	if err := send(conn, turnResponse{
		SessionID:      id,
		Utterance:      greeting.Text,
		Finished:       state.Finished,
		QuestionsAsked: state.QuestionsAsked,
	}); err != nil {
		return
	}

	log.Info("websocket connected")

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read", zap.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		resp := turnResponse{SessionID: id, Utterance: GlitchReply, Fallback: true}
		out, err := h.sessions.ProcessTurn(ctx, id, strings.TrimSpace(string(data)))
		if err != nil {
			log.Error("processing websocket turn", zap.Error(err))
		} else {
			resp = newTurnResponse(id, out)
		}

		if err := send(conn, resp); err != nil {
			log.Warn("websocket write", zap.Error(err))
			return
		}
	}
}

func send(conn *websocket.Conn, resp turnResponse) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(resp)
}
