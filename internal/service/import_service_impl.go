package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/alexanderramin/lifelog/internal/importer"
	"github.com/alexanderramin/lifelog/internal/session"
	"github.com/go-playground/validator/v10"
)

// ErrInvalidRequest marks requests rejected before the pipeline runs.
var ErrInvalidRequest = errors.New("invalid import request")

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

type importService struct {
	pipeline *importer.Pipeline
	sessions session.Store
	now      func() time.Time
	observer UseCaseObserver
}

func NewImportService(pipeline *importer.Pipeline, sessions session.Store, observers ...UseCaseObserver) ImportService {
	return &importService{
		pipeline: pipeline,
		sessions: sessions,
		now:      time.Now,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *importService) Import(ctx context.Context, req ImportRequest, sink importer.ProgressSink) (out *ImportOutcome, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"user_id":     req.UserID,
		"resolutions": len(req.Resolutions),
		"resumed":     req.SessionID != "",
	}
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "import-habits",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil && (out.Summary == nil || out.Summary.Success),
			Err:       err,
			Fields:    fields,
		})
	}()

	if req.SessionID != "" {
		pending, loadErr := s.sessions.Load(ctx, req.UserID, req.SessionID)
		if loadErr != nil {
			return nil, fmt.Errorf("resuming import %s: %w", req.SessionID, loadErr)
		}
		pending.Apply(&req.Request)
	}

	if err = validate.Struct(req); err != nil {
		return nil, formatValidationErrors(err)
	}

	res := s.pipeline.Run(ctx, req.Request, sink)
	out = &ImportOutcome{Result: res}
	fields["outcome"] = string(res.Outcome)

	switch res.Outcome {
	case importer.OutcomeConflicts:
		fields["conflicts"] = len(res.Conflicts)
		pending := session.FromRequest(req.Request, res.Conflicts, s.now())
		pending.ID = req.SessionID
		id, saveErr := s.sessions.Save(ctx, pending)
		if saveErr != nil {
			// The caller can still resume by sending the files again.
			fields["session_error"] = saveErr.Error()
			break
		}
		out.SessionID = id
	case importer.OutcomeComplete:
		fields["habits_imported"] = res.Summary.HabitsImported
		fields["entries_imported"] = res.Summary.EntriesImported
		fields["entries_failed"] = res.Summary.EntriesFailed
		if req.SessionID != "" {
			if delErr := s.sessions.Delete(ctx, req.SessionID); delErr != nil {
				fields["session_error"] = delErr.Error()
			}
		}
	}
	return out, nil
}

func formatValidationErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(strings.TrimPrefix(fe.Namespace(), "ImportRequest."), "Request.")
		switch fe.Tag() {
		case "required", "required_if":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
}
