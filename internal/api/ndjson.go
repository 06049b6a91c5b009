package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/alexanderramin/lifelog/internal/importer"
)

const ndjsonContentType = "application/x-ndjson"

type EventType string

const (
	EventProgress  EventType = "progress"
	EventConflicts EventType = "conflicts"
	EventComplete  EventType = "complete"
	EventError     EventType = "error"
)

// Event is one line of an import stream.
type Event struct {
	Type      EventType                 `json:"type"`
	Progress  *importer.Progress        `json:"progress,omitempty"`
	Conflicts []importer.ConflictRecord `json:"conflicts,omitempty"`
	SessionID string                    `json:"sessionId,omitempty"`
	Summary   *importer.Summary         `json:"summary,omitempty"`
	Message   string                    `json:"message,omitempty"`
}

// ndjsonWriter writes one JSON object per line and flushes after each. The
// status line goes out with the first event.
type ndjsonWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	enc     *json.Encoder
	started bool
}

func newNDJSONWriter(w http.ResponseWriter) (*ndjsonWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support flushing")
	}
	return &ndjsonWriter{w: w, flusher: flusher, enc: json.NewEncoder(w)}, nil
}

// Started reports whether any event has been written.
func (n *ndjsonWriter) Started() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.started
}

func (n *ndjsonWriter) write(status int, ev Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.started {
		h := n.w.Header()
		h.Set("Content-Type", ndjsonContentType)
		h.Set("Cache-Control", "no-cache")
		h.Set("X-Content-Type-Options", "nosniff")
		n.w.WriteHeader(status)
		n.started = true
	}
	if err := n.enc.Encode(ev); err != nil {
		return err
	}
	n.flusher.Flush()
	return nil
}

func (n *ndjsonWriter) Write(ev Event) error {
	return n.write(http.StatusOK, ev)
}

// Fail writes an error event. Before anything was streamed the given status
// is used, afterwards the stream is already 200.
func (n *ndjsonWriter) Fail(status int, msg string) error {
	return n.write(status, Event{Type: EventError, Message: msg})
}
