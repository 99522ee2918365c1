package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"browser-pilot/internal/application/port/output"
	"browser-pilot/internal/domain/entity"
	"browser-pilot/internal/infrastructure/prompts"

	"github.com/go-chi/chi/v5/middleware"
)

type chatRequest struct {
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

type actionRequest struct {
	Action string        `json:"action"`
	Params entity.Params `json:"params"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"browser": map[string]any{"running": s.automator.Running()},
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.Mode == "" {
		req.Mode = entity.DefaultMode
	}
	if !prompts.KnownMode(req.Mode) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown mode %q", req.Mode))
		return
	}

	res, err := s.turns.Execute(r.Context(), entity.Turn{
		ID:      middleware.GetReqID(r.Context()),
		Message: req.Message,
		Mode:    req.Mode,
	})
	if err != nil {
		s.logger.Error("Chat turn failed", "error", err)
		writeError(w, http.StatusBadGateway, "chat failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	action := entity.NewAction(entity.ActionKind(req.Action), req.Params, "")
	rec := output.AuditRecord{
		TurnID: middleware.GetReqID(r.Context()),
		Action: action,
		Source: "direct",
	}

	if err := s.validator.Validate(action); err != nil {
		s.logger.Warn("Action blocked", "action", req.Action, "reason", err)
		if s.audit != nil {
			s.audit.Blocked(rec, err)
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	result := s.automator.Submit(r.Context(), action)
	rec.Result = result
	rec.Duration = time.Since(start)
	if s.audit != nil {
		rec.PageURL = s.automator.Context(r.Context()).URL
		s.audit.Record(rec)
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	if !s.automator.Running() {
		writeJSON(w, http.StatusOK, map[string]any{"running": false})
		return
	}
	info := s.automator.Context(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"running": true,
		"url":     info.URL,
		"title":   info.Title,
	})
}

func (s *Server) handlePerception(w http.ResponseWriter, r *http.Request) {
	if !s.automator.Running() {
		writeJSON(w, http.StatusOK, map[string]any{"running": false})
		return
	}
	writeJSON(w, http.StatusOK, s.automator.Perception(r.Context()))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	if s.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body too large")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
