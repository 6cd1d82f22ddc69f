package http

import (
	"context"
	"net/http"

	"quizha-server/internal/domain"
	"quizha-server/internal/infra/sqldb"

	"github.com/gorilla/mux"
)

type activityRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	DurationMinutes int    `json:"durationMinutes" validate:"required,gt=0,lte=1440"`
}

type startRequest struct {
	DurationMinutes int `json:"durationMinutes" validate:"gte=0,lte=1440"`
}

type remainingResponse struct {
	ActivityID       int64                 `json:"activityId"`
	Status           domain.ActivityStatus `json:"status"`
	RemainingSeconds int                   `json:"remainingSeconds"`
}

type countResponse struct {
	Count int `json:"count"`
}

func (h *handlers) getActivity(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := requireSameActivity(principalFrom(r.Context()), id); err != nil {
		return err
	}
	a, err := h.Catalog.Activity(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, a)
	return nil
}

func (h *handlers) remaining(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := requireSameActivity(principalFrom(r.Context()), id); err != nil {
		return err
	}
	left, err := h.Lifecycle.Remaining(r.Context(), id)
	if err != nil {
		return err
	}
	a, err := h.Catalog.Activity(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, remainingResponse{ActivityID: id, Status: a.Status, RemainingSeconds: left})
	return nil
}

func (h *handlers) createActivity(w http.ResponseWriter, r *http.Request) error {
	var req activityRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	a, err := h.Catalog.CreateActivity(r.Context(), req.Title, req.DurationMinutes)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, a)
	return nil
}

func (h *handlers) listActivities(order sqldb.ActivityOrder) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		activities, err := h.Catalog.Activities(r.Context(), order)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, activities)
		return nil
	}
}

func (h *handlers) activitiesByStatus(w http.ResponseWriter, r *http.Request) error {
	status := domain.ActivityStatus(mux.Vars(r)["status"])
	activities, err := h.Catalog.ActivitiesByStatus(r.Context(), status)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, activities)
	return nil
}

func (h *handlers) countActivities(w http.ResponseWriter, r *http.Request) error {
	n, err := h.Catalog.CountActivities(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
	return nil
}

func (h *handlers) countActivitiesByStatus(w http.ResponseWriter, r *http.Request) error {
	status := domain.ActivityStatus(mux.Vars(r)["status"])
	n, err := h.Catalog.CountActivitiesByStatus(r.Context(), status)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
	return nil
}

func (h *handlers) updateActivity(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var req activityRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	a, err := h.Catalog.UpdateActivity(r.Context(), id, req.Title, req.DurationMinutes)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, a)
	return nil
}

func (h *handlers) deleteActivity(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.Catalog.DeleteActivity(r.Context(), id); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "activity deleted"})
	return nil
}

// startActivity accepts an optional {"durationMinutes": n}; without it the stored duration is used.
func (h *handlers) startActivity(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var req startRequest
	if err := decodeOptional(r, &req); err != nil {
		return err
	}
	a, err := h.Lifecycle.Start(r.Context(), id, req.DurationMinutes)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, a)
	return nil
}

func (h *handlers) transition(fn func(ctx context.Context, id int64) (domain.Activity, error)) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := pathID(r, "id")
		if err != nil {
			return err
		}
		a, err := fn(r.Context(), id)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, a)
		return nil
	}
}
