package http

import "net/http"

type enrollmentRequest struct {
	ActivityID int64 `json:"activityId" validate:"required,gt=0"`
	StudentID  int64 `json:"studentId" validate:"required,gt=0"`
}

func (h *handlers) enroll(w http.ResponseWriter, r *http.Request) error {
	var req enrollmentRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	e, err := h.Catalog.Enroll(r.Context(), req.ActivityID, req.StudentID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, e)
	return nil
}

func (h *handlers) unenroll(w http.ResponseWriter, r *http.Request) error {
	var req enrollmentRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if err := h.Catalog.Unenroll(r.Context(), req.ActivityID, req.StudentID); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "student removed from activity"})
	return nil
}

func (h *handlers) studentsByActivity(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	students, err := h.Catalog.StudentsByActivity(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, students)
	return nil
}

func (h *handlers) activitiesByStudent(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	activities, err := h.Catalog.ActivitiesByStudent(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, activities)
	return nil
}
