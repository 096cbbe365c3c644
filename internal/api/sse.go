package api

import (
	"fmt"
	"net/http"
	"time"
)

// handleSSE opens the streaming handshake channel: one endpoint event
// carrying the absolute message URL, then a comment ping on every
// interval tick. The loop exits when the client goes away or the server
// shuts down — both cancel the request context, because the server wires
// its run context in as the connections' base context.
func (h *Handler) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: endpoint\ndata: %s\n\n", h.messageURL(r))
	flusher.Flush()

	interval := h.cfg.PingInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// messageURL is the absolute URL of the message endpoint, either the
// configured public base or derived from the incoming request.
func (h *Handler) messageURL(r *http.Request) string {
	base := h.cfg.PublicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/message"
}
