package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"persona-quiz-service/internal/app"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// ServeWS plays one session over a websocket. The client either starts a
// new session with ?testId= or resumes one with ?sessionId=. Every state
// change is pushed as a "session" message; the connection closes after
// the session reaches a terminal phase.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	testID := r.URL.Query().Get("testId")
	sessionID := r.URL.Query().Get("sessionId")
	if testID == "" && sessionID == "" {
		http.Error(w, "missing testId or sessionId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	var state app.SessionState
	if sessionID != "" {
		state, err = h.service.Session(ctx, sessionID)
	} else {
		state, err = h.service.Start(ctx, testID)
	}
	if err != nil {
		writeError(conn, err)
		return
	}
	if !h.send(conn, state) {
		return
	}
	if state.Phase.Terminal() {
		closeNormal(conn, string(state.Phase))
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("ws read error: %v", err)
			}
			return
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.OptionID == "" {
				writeJSON(conn, outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "invalid answer payload", Status: http.StatusBadRequest}})
				continue
			}
			next, err := h.service.Answer(ctx, state.ID, payload.submission())
			if err != nil {
				writeError(conn, err)
				continue
			}
			state = next
			if !h.send(conn, state) {
				return
			}
			if state.Phase.Terminal() {
				closeNormal(conn, string(state.Phase))
				return
			}
		case "abandon":
			if err := h.service.Abandon(context.WithoutCancel(ctx), state.ID); err != nil {
				log.Printf("abandon session %s: %v", state.ID, err)
			}
			closeNormal(conn, "abandoned")
			return
		default:
			writeJSON(conn, outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "unsupported message type", Status: http.StatusBadRequest}})
		}
	}
}

func (h *WSHandler) send(conn *websocket.Conn, state app.SessionState) bool {
	return writeJSON(conn, outboundMessage[sessionView]{Type: "session", Payload: newSessionView(state)})
}

func writeError(conn *websocket.Conn, err error) {
	writeJSON(conn, outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error(), Status: statusFor(err)}})
}

func writeJSON(conn *websocket.Conn, msg any) bool {
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("ws write error: %v", err)
		return false
	}
	return true
}

func closeNormal(conn *websocket.Conn, reason string) {
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
}
