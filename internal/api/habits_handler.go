package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/alexanderramin/lifelog/internal/domain"
	"github.com/alexanderramin/lifelog/internal/repository"
	"github.com/alexanderramin/lifelog/internal/service"
	"github.com/go-chi/chi/v5"
)

type habitView struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	Question         string    `json:"question,omitempty"`
	Category         string    `json:"category"`
	Type             string    `json:"type"`
	Polarity         string    `json:"polarity"`
	Color            string    `json:"color"`
	Position         int       `json:"position"`
	TargetCount      int       `json:"targetCount"`
	IntervalDays     int       `json:"intervalDays"`
	CurrentStreak    int       `json:"currentStreak"`
	BestStreak       int       `json:"bestStreak"`
	TotalCompletions int       `json:"totalCompletions"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func toHabitView(h *domain.Habit) habitView {
	return habitView{
		ID:               h.ID,
		Name:             h.Name,
		Description:      h.Description,
		Question:         h.Question,
		Category:         string(h.Category),
		Type:             string(h.Type),
		Polarity:         string(h.Polarity),
		Color:            h.Color,
		Position:         h.Position,
		TargetCount:      h.TargetCount,
		IntervalDays:     h.IntervalDays,
		CurrentStreak:    h.CurrentStreak,
		BestStreak:       h.BestStreak,
		TotalCompletions: h.TotalCompletions,
		UpdatedAt:        h.UpdatedAt,
	}
}

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	habits, err := s.habits.List(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.logger.Error("listing habits failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list habits")
		return
	}
	views := make([]habitView, 0, len(habits))
	for _, h := range habits {
		views = append(views, toHabitView(h))
	}
	writeJSON(w, http.StatusOK, map[string]any{"habits": views})
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed, err := s.habits.Delete(r.Context(), userFrom(r.Context()), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}
	if err != nil {
		s.logger.Error("deleting habit failed", "habit_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete habit")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "entriesDeleted": removed})
}

type renameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleRenameHabit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req renameRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h, err := s.habits.Rename(r.Context(), userFrom(r.Context()), id, req.Name)
	switch {
	case errors.Is(err, service.ErrInvalidHabitName):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "habit not found")
	case errors.Is(err, repository.ErrDuplicate):
		writeError(w, http.StatusConflict, "another habit already has that name")
	case err != nil:
		s.logger.Error("renaming habit failed", "habit_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to rename habit")
	default:
		writeJSON(w, http.StatusOK, toHabitView(h))
	}
}

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	results, err := s.habits.RecalculateAll(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.logger.Error("recalculating streaks failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to recalculate streaks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"streaks": results})
}
