package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/malik-dev28/OTA-AI/internal/types"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		s.writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	reply, err := s.deps.Responder.Respond(r.Context(), req.Prompt, req.History)
	if err != nil {
		s.logger.Error("chat failed", zap.Error(err))
		s.writeError(w, http.StatusBadGateway, "chat model unavailable")
		return
	}
	writeJSON(w, http.StatusOK, types.ChatResponse{Response: reply})
}

// handleAnalyzeFlight answers 200 with a null params for anything that is
// not a usable flight request, including model failures.
func (s *Server) handleAnalyzeFlight(w http.ResponseWriter, r *http.Request) {
	var req types.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	q := s.deps.Extractor.Extract(r.Context(), req.Prompt, s.deps.Now())
	writeJSON(w, http.StatusOK, types.AnalyzeResponse{Params: q})
}
