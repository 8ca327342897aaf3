package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quiz-gateway/internal/auth"
	"quiz-gateway/internal/bus"
	"quiz-gateway/internal/domain"
)

// WSHandler upgrades HTTP requests to websockets and manages channel
// membership for the connection's lifetime. Membership dies with the
// connection; reconnecting clients must rejoin.
type WSHandler struct {
	hub      *bus.Hub
	verifier *auth.Verifier
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *bus.Hub, verifier *auth.Verifier) *WSHandler {
	return &WSHandler{
		hub:      hub,
		verifier: verifier,
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

type joinQuizPayload struct {
	QuizID string `json:"quizId"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS handles one socket connection. A valid token in the query string
// joins the caller's user channel for review notifications; anonymous
// connections may still join quiz channels.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	var identity domain.Identity
	if token := r.URL.Query().Get("token"); token != "" {
		var err error
		identity, err = h.verifier.Verify(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe()
	if identity.ID != "" {
		h.hub.Join(sub, bus.UserChannel(identity.ID))
	}

	send := make(chan bus.Event, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	forwardDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logrus.WithError(err).Debug("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(forwardDone)
		for {
			select {
			case event, ok := <-sub.Events():
				if !ok {
					return
				}
				select {
				case send <- event:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// reply queues an outbound frame. Dropped if the writer already exited on
	// a write error, so the read loop never blocks on a full send channel.
	reply := func(event bus.Event) {
		select {
		case send <- event:
		case <-writerDone:
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "join-quiz":
			var payload joinQuizPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuizID == "" {
				reply(bus.Event{Name: "error", Payload: errorPayload{Message: "invalid join-quiz payload"}})
				continue
			}
			h.hub.Join(sub, bus.QuizChannel(payload.QuizID))
			reply(bus.Event{Name: "joined", Payload: joinQuizPayload{QuizID: payload.QuizID}})
		case "leave-quiz":
			var payload joinQuizPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuizID == "" {
				reply(bus.Event{Name: "error", Payload: errorPayload{Message: "invalid leave-quiz payload"}})
				continue
			}
			h.hub.Leave(sub, bus.QuizChannel(payload.QuizID))
		default:
			reply(bus.Event{Name: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	h.hub.Unsubscribe(sub)
	close(closeSignals)
	<-forwardDone
	close(send)
	<-writerDone
}
