package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// KeepAlive is how often an idle stream gets a comment line. It must stay
// below typical proxy idle timeouts.
var KeepAlive = 15 * time.Second

// Serve streams events matching pattern to w until the request ends or the
// hub stops.
func Serve(hub *Hub, w http.ResponseWriter, r *http.Request, clientID, pattern string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// Streams outlive the server's write timeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		hub.log.Debug("could not clear write deadline", map[string]interface{}{
			"client": clientID,
			"error":  err.Error(),
		})
	}

	client := NewClient(clientID, pattern)
	if !ValidPattern(client.pattern) {
		http.Error(w, "invalid event pattern", http.StatusBadRequest)
		return
	}
	if !hub.Register(r.Context(), client) {
		http.Error(w, "event stream closed", http.StatusServiceUnavailable)
		return
	}
	defer hub.Unregister(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	hello, _ := json.Marshal(ConnectedEvent{ClientID: clientID, Pattern: client.pattern})
	writeEvent(w, Event{Type: EventConnected, Data: hello})
	flusher.Flush()

	keepAlive := time.NewTicker(KeepAlive)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-client.Events():
			if !ok {
				return
			}
			writeEvent(w, e)
			flusher.Flush()
		case <-keepAlive.C:
			_, _ = fmt.Fprintf(w, ": keepalive %d\n\n", time.Now().Unix())
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, e Event) {
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, e.Data)
}
