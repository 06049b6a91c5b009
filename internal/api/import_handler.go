package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alexanderramin/lifelog/internal/importer"
	"github.com/alexanderramin/lifelog/internal/service"
	"github.com/alexanderramin/lifelog/internal/session"
)

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	stream, err := newNDJSONWriter(w)
	if err != nil {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	var req service.ImportRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = stream.Fail(http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		_ = stream.Fail(http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	req.UserID = userFrom(r.Context())

	sink := func(p importer.Progress) {
		if err := stream.Write(Event{Type: EventProgress, Progress: &p}); err != nil {
			s.logger.Debug("progress write failed", "error", err)
		}
	}

	out, err := s.imports.Import(r.Context(), req, sink)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			status = http.StatusBadRequest
		case errors.Is(err, session.ErrSessionNotFound):
			status = http.StatusNotFound
		}
		if status == http.StatusInternalServerError {
			s.logger.Error("import failed", "user_id", req.UserID, "error", err)
		}
		_ = stream.Fail(status, err.Error())
		return
	}

	switch out.Outcome {
	case importer.OutcomeConflicts:
		_ = stream.Write(Event{Type: EventConflicts, Conflicts: out.Conflicts, SessionID: out.SessionID})
	default:
		_ = stream.Write(Event{Type: EventComplete, Summary: out.Summary})
	}
}
