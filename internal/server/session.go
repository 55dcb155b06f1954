package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/malik-dev28/OTA-AI/internal/conversation"
)

type inputRequest struct {
	Text string `json:"text"`
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) *conversation.Session {
	sid := s.getOrCreateSessionID(w, r)
	return s.deps.Sessions.Get(r.Context(), sid)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session(w, r).Snapshot())
}

func (s *Server) handleSessionInput(w http.ResponseWriter, r *http.Request) {
	var req inputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess := s.session(w, r)
	sess.SetInput(req.Text)
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleSessionReset starts a new chat in the same session.
func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Reset()
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleSessionHistoryClear(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if s.deps.History != nil {
		if err := s.deps.History.Clear(r.Context(), sess.ID); err != nil {
			s.logger.Error("failed to clear history", zap.String("session", sess.ID), zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, "failed to clear history")
			return
		}
	}
	sess.ClearHistory()
	writeJSON(w, http.StatusOK, sess.Snapshot())
}
