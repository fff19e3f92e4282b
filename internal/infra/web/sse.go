package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleStream serves the live job stream over Server-Sent Events. The
// subscriber sees the readiness frame, zero or more delta frames, then
// exactly one terminal frame before the broker closes the channel. The
// connection blocks only this handler's goroutine; a client that stops
// reading is dropped by the registry's non-blocking push, never the
// publisher.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sub, err := s.jobs.Subscribe(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	defer s.jobs.Unsubscribe(id, sub.ID)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			// Client went away: a normal unsubscribe, not an error.
			return
		case frame, open := <-sub.Frames():
			if !open {
				return
			}
			data, err := json.Marshal(frame)
			if err != nil {
				s.log.Error().Err(err).Str("job_id", id).Msg("frame marshal failed")
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
