package http

import (
	"net/http"
	"time"

	"quizha-server/internal/domain"
)

type startSessionRequest struct {
	ActivityID int64 `json:"activityId" validate:"required,gt=0"`
	StudentID  int64 `json:"studentId" validate:"required,gt=0"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

type finishResponse struct {
	Message string `json:"message"`
	Score   int    `json:"score"`
}

type resultRequest struct {
	ActivityStudentID int64      `json:"activityStudentId" validate:"required,gt=0"`
	Score             *int       `json:"score" validate:"omitempty,gte=0"`
	StartedAt         time.Time  `json:"startedAt"`
	CompletedAt       *time.Time `json:"completedAt"`
}

type updateResultRequest struct {
	Score       *int       `json:"score" validate:"omitempty,gte=0"`
	CompletedAt *time.Time `json:"completedAt"`
}

func (h *handlers) startSession(w http.ResponseWriter, r *http.Request) error {
	var req startSessionRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	res, err := h.Scoring.StartSession(r.Context(), principalFrom(r.Context()), req.ActivityID, req.StudentID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: res.ID})
	return nil
}

func (h *handlers) finish(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	res, err := h.Scoring.Finish(r.Context(), principalFrom(r.Context()), id)
	if err != nil {
		return err
	}
	score := 0
	if res.Score != nil {
		score = *res.Score
	}
	writeJSON(w, http.StatusOK, finishResponse{Message: "Quiz finished", Score: score})
	return nil
}

func (h *handlers) getResult(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	res, err := h.Scoring.Result(r.Context(), principalFrom(r.Context()), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

func (h *handlers) leaderboard(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	board, err := h.Scoring.Leaderboard(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, board)
	return nil
}

func (h *handlers) listResults(w http.ResponseWriter, r *http.Request) error {
	results, err := h.Catalog.Results(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, results)
	return nil
}

func (h *handlers) createResult(w http.ResponseWriter, r *http.Request) error {
	var req resultRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	res, err := h.Catalog.CreateResult(r.Context(), domain.Result{
		ActivityStudentID: req.ActivityStudentID,
		Score:             req.Score,
		StartedAt:         req.StartedAt,
		CompletedAt:       req.CompletedAt,
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, res)
	return nil
}

func (h *handlers) countResults(w http.ResponseWriter, r *http.Request) error {
	n, err := h.Catalog.CountResults(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
	return nil
}

func (h *handlers) resultsByEnrollment(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	results, err := h.Catalog.ResultsByEnrollment(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, results)
	return nil
}

func (h *handlers) updateResult(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var req updateResultRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	res, err := h.Catalog.UpdateResult(r.Context(), domain.Result{
		ID:          id,
		Score:       req.Score,
		CompletedAt: req.CompletedAt,
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

func (h *handlers) deleteResult(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.Catalog.DeleteResult(r.Context(), id); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "student activity result deleted"})
	return nil
}
