package server

import (
	"fmt"
	"net/http"
)

// handleEvents streams frames as server-sent events for plain HTTP clients.
func (h *Hub) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}
	duel, err := h.admit(r)
	if err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	v := h.join(duel)
	defer h.leave(duel, v)

	for {
		select {
		case payload := <-v.send:
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		case <-v.done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
