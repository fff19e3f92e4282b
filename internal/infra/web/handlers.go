package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"assistant-relay/internal/domain"
	"assistant-relay/internal/domain/model"
	"assistant-relay/internal/infra/metrics"
	red "assistant-relay/internal/infra/redis"

	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeDomainError maps the error taxonomy onto status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}

func userIDOrDefault(id string) string {
	if id == "" {
		return "default"
	}
	return id
}

// ---- Job broker ----

type submitRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	userID := userIDOrDefault(req.UserID)

	if s.limiter != nil && s.cfg.SubmitPerMinute > 0 {
		allowed, err := s.limiter.Allow(ctx, red.SubmitKey(userID), s.cfg.SubmitPerMinute, rateWindow)
		if err != nil {
			s.log.Error().Err(err).Msg("rate limiter unavailable")
		} else if !allowed {
			metrics.IncSubmitRateLimited()
			writeError(w, http.StatusTooManyRequests, "rate limited")
			return
		}
	}

	job, err := s.jobs.Submit(ctx, userID, req.Message)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"jobId": job.ID})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleFetchNext(w http.ResponseWriter, r *http.Request) {
	userID := userIDOrDefault(r.URL.Query().Get("userId"))
	job, err := s.jobs.FetchNext(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if job == nil {
		// Empty queue is a normal answer, not an error.
		writeJSON(w, http.StatusOK, map[string]any{"job": nil})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type completeRequest struct {
	Reply string `json:"reply"`
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := s.jobs.Complete(r.Context(), chi.URLParam(r, "id"), req.Reply); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "reply is required")
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type failRequest struct {
	Error string `json:"error"`
}

func (s *Server) handleFail(w http.ResponseWriter, r *http.Request) {
	var req failRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := s.jobs.Fail(r.Context(), chi.URLParam(r, "id"), req.Error); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.jobs.Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type chunkRequest struct {
	Delta string `json:"delta"`
}

func (s *Server) handleAppendChunk(w http.ResponseWriter, r *http.Request) {
	var req chunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := s.jobs.AppendChunk(r.Context(), chi.URLParam(r, "id"), req.Delta); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "delta is required")
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ---- Worker presence & status ----

type heartbeatRequest struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := s.presence.Beat(r.Context(), userIDOrDefault(req.UserID), req.Status); err != nil {
		s.log.Error().Err(err).Msg("heartbeat store failed")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	userID := userIDOrDefault(r.URL.Query().Get("userId"))
	hb, err := s.presence.Get(r.Context(), userID)
	if err != nil {
		s.log.Error().Err(err).Msg("presence read failed")
	}

	resp := map[string]any{
		"relay":          "online",
		"workerLastSeen": nil,
		"workerStatus":   nil,
	}
	if hb != nil {
		resp["workerLastSeen"] = hb.LastSeen
		resp["workerStatus"] = hb.Status
	}
	writeJSON(w, http.StatusOK, resp)
}

// ---- Mirrors ----

func (s *Server) handleGetTasks(w http.ResponseWriter, r *http.Request) {
	userID := userIDOrDefault(r.URL.Query().Get("userId"))
	tasks, err := s.mirror.Tasks(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

type setTasksRequest struct {
	UserID string    `json:"userId"`
	Tasks  *[]string `json:"tasks"`
}

func (s *Server) handleSetTasks(w http.ResponseWriter, r *http.Request) {
	var req setTasksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Tasks == nil {
		writeError(w, http.StatusBadRequest, "tasks is required")
		return
	}
	clean := make([]string, 0, len(*req.Tasks))
	for _, t := range *req.Tasks {
		if t != "" {
			clean = append(clean, t)
		}
	}
	if err := s.mirror.SetTasks(r.Context(), userIDOrDefault(req.UserID), clean); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": len(clean)})
}

func (s *Server) handleGetPersonal(w http.ResponseWriter, r *http.Request) {
	userID := userIDOrDefault(r.URL.Query().Get("userId"))
	items, err := s.mirror.Personal(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type setPersonalRequest struct {
	UserID string                `json:"userId"`
	Items  *[]model.PersonalItem `json:"items"`
}

func (s *Server) handleSetPersonal(w http.ResponseWriter, r *http.Request) {
	var req setPersonalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Items == nil {
		writeError(w, http.StatusBadRequest, "items is required")
		return
	}
	clean := make([]model.PersonalItem, 0, len(*req.Items))
	for _, it := range *req.Items {
		if it.Key != "" && it.Value != "" {
			clean = append(clean, it)
		}
	}
	if err := s.mirror.SetPersonal(r.Context(), userIDOrDefault(req.UserID), clean); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": len(clean)})
}

func (s *Server) handleGetWeather(w http.ResponseWriter, r *http.Request) {
	userID := userIDOrDefault(r.URL.Query().Get("userId"))
	summary, err := s.mirror.Weather(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
}

type setWeatherRequest struct {
	UserID  string                `json:"userId"`
	Summary *model.WeatherSummary `json:"summary"`
}

func (s *Server) handleSetWeather(w http.ResponseWriter, r *http.Request) {
	var req setWeatherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Summary == nil {
		writeError(w, http.StatusBadRequest, "summary is required")
		return
	}
	if err := s.mirror.SetWeather(r.Context(), userIDOrDefault(req.UserID), *req.Summary); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
