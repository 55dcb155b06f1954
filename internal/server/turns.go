package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/malik-dev28/OTA-AI/internal/conversation"
	"github.com/malik-dev28/OTA-AI/internal/types"
)

// turnRequest carries either a new message (Text) or a prompt from the
// recent list to answer again (Replay).
type turnRequest struct {
	Text   string `json:"text"`
	Replay string `json:"replay"`
}

type turnEvent struct {
	Turn uint64 `json:"turn"`
}

type doneEvent struct {
	Turn uint64 `json:"turn"`
	Text string `json:"text"`
}

type navigateEvent struct {
	Turn  uint64             `json:"turn"`
	Path  string             `json:"path"`
	Query *types.FlightQuery `json:"query"`
}

type errorEvent struct {
	Turn    uint64 `json:"turn"`
	Message string `json:"message"`
}

// sseSink streams a turn as Server-Sent Events. Pipeline calls arrive on the
// handler goroutine, so writes need no locking.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
	logger  *zap.Logger
}

func (e *sseSink) send(event string, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// Tokens carry <b> markup; keep it readable on the wire.
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		e.logger.Error("failed to encode event", zap.String("event", event), zap.Error(err))
		return
	}
	fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", event, bytes.TrimRight(buf.Bytes(), "\n"))
	e.flusher.Flush()
}

func (e *sseSink) TurnStarted(id uint64) { e.send("turn", turnEvent{Turn: id}) }
func (e *sseSink) Token(chunk string)    { e.send("token", chunk) }

// handleTurn runs one conversation turn and streams it: a "turn" event,
// then "token" events while the reply is revealed, then one of "done",
// "navigate", "error" or "superseded".
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	replay := strings.TrimSpace(req.Replay) != ""
	if !replay && strings.TrimSpace(req.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	sess := s.session(w, r)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sink := &sseSink{w: w, flusher: flusher, logger: s.logger}
	var (
		res conversation.Result
		err error
	)
	if replay {
		res, err = s.deps.Pipeline.Replay(r.Context(), sess, req.Replay, sink)
	} else {
		res, err = s.deps.Pipeline.Submit(r.Context(), sess, req.Text, sink)
	}
	if err != nil {
		s.logger.Warn("turn rejected", zap.String("session", sess.ID), zap.Error(err))
		sink.send("error", errorEvent{Message: err.Error()})
		return
	}

	switch res.Kind {
	case conversation.KindFlightSearch:
		sink.send("navigate", navigateEvent{Turn: res.TurnID, Path: resultsPath(*res.Query), Query: res.Query})
	case conversation.KindChat:
		sink.send("done", doneEvent{Turn: res.TurnID, Text: res.Text})
	case conversation.KindError:
		sink.send("error", errorEvent{Turn: res.TurnID, Message: res.Text})
	case conversation.KindSuperseded:
		sink.send("superseded", turnEvent{Turn: res.TurnID})
	}
}
