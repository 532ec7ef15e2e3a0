package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"composer-quiz/internal/app"
	"composer-quiz/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// sendBuffer is how many outbound messages a connection may queue before it is dropped.
const sendBuffer = 32

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

func NewWSHandler(service *app.QuizService, log logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log,
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

// startPayload distinguishes a new game (remaining absent or null) from a continued one.
type startPayload struct {
	Remaining *domain.Continuation `json:"remaining"`
}

type answerPayload struct {
	SampleID int `json:"sampleId"`
}

type playbackPayload struct {
	State         string `json:"state"`
	PlayWhenReady bool   `json:"playWhenReady"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type playPayload struct {
	URI string `json:"uri"`
}

// ServeWS upgrades HTTP requests to websockets and runs one player's quiz over the connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "missing playerId", http.StatusBadRequest)
		return
	}
	log := h.log.WithField("player", playerID)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], sendBuffer)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	peer := &wsPeer{send: send, done: closeSignals, overflow: func() {
		log.Warn("ws client too slow, closing connection")
		// unblocks ReadJSON so the loop below tears the session down
		_ = conn.Close()
	}}

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Warn("ws write error")
				return
			}
		}
	}()

	var sessionID string
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			var payload startPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					peer.emit("error", errorPayload{Message: "invalid start payload"})
					continue
				}
			}
			if sessionID != "" {
				h.service.EndSession(sessionID)
				sessionID = ""
			}
			session, err := h.service.StartSession(r.Context(), playerID, payload.Remaining, peer, peer)
			if err != nil {
				peer.emit("error", errorPayload{Message: err.Error()})
				continue
			}
			sessionID = session.ID()
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				peer.emit("error", errorPayload{Message: "invalid answer payload"})
				continue
			}
			if sessionID == "" {
				peer.emit("error", errorPayload{Message: domain.ErrSessionNotFound.Error()})
				continue
			}
			// the result itself reaches the client through the presenter
			if _, err := h.service.Answer(r.Context(), sessionID, payload.SampleID); err != nil {
				peer.emit("error", errorPayload{Message: err.Error()})
			}
		case "playback":
			var payload playbackPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				peer.emit("error", errorPayload{Message: "invalid playback payload"})
				continue
			}
			if sessionID != "" {
				h.service.PlaybackChanged(sessionID, domain.ParsePlaybackState(payload.State), payload.PlayWhenReady)
			}
		default:
			peer.emit("error", errorPayload{Message: "unsupported message type"})
		}
	}

	// stop emitting before teardown; a session holding its lock may be blocked on send
	close(closeSignals)
	if sessionID != "" {
		h.service.EndSession(sessionID)
	}
	close(send)
	<-writerDone
}

// wsPeer is both the presenter and the player of a connection's session.
// emit runs under the session lock and never blocks: a full send buffer drops the connection.
type wsPeer struct {
	send     chan<- outboundMessage[any]
	done     <-chan struct{}
	overflow func()
	dropped  atomic.Bool
}

func (p *wsPeer) emit(typ string, payload any) {
	select {
	case <-p.done:
		return
	default:
	}
	if p.dropped.Load() {
		return
	}
	select {
	case p.send <- outboundMessage[any]{Type: typ, Payload: payload}:
	default:
		if p.dropped.CompareAndSwap(false, true) && p.overflow != nil {
			p.overflow()
		}
	}
}

func (p *wsPeer) ShowRound(view domain.RoundView) { p.emit("round", view) }

func (p *wsPeer) ShowResult(result domain.AnswerResult) { p.emit("result", result) }

func (p *wsPeer) Notify(message string) { p.emit("notice", errorPayload{Message: message}) }

func (p *wsPeer) SessionEnded(summary domain.SessionSummary) { p.emit("sessionEnded", summary) }

func (p *wsPeer) Play(_ context.Context, uri string) error {
	p.emit("play", playPayload{URI: uri})
	return nil
}

func (p *wsPeer) Stop() { p.emit("stop", struct{}{}) }

// Release is a no-op; the client owns its player and drops it with the connection.
func (p *wsPeer) Release() {}
