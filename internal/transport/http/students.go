package http

import (
	"net/http"

	"quizha-server/internal/domain"

	"github.com/gorilla/mux"
)

type studentRequest struct {
	FirstName  string `json:"firstName" validate:"required,max=100"`
	LastName   string `json:"lastName" validate:"required,max=100"`
	YearLevel  string `json:"yearlevel" validate:"max=20"`
	Department string `json:"department" validate:"max=100"`
	Course     string `json:"course" validate:"max=100"`
	Birthdate  string `json:"birthdate" validate:"omitempty,datetime=2006-01-02"`
}

func (req studentRequest) toDomain(id int64) domain.Student {
	return domain.Student{
		ID:         id,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		YearLevel:  req.YearLevel,
		Department: req.Department,
		Course:     req.Course,
		Birthdate:  req.Birthdate,
	}
}

func (h *handlers) createStudent(w http.ResponseWriter, r *http.Request) error {
	var req studentRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	s, err := h.Catalog.CreateStudent(r.Context(), req.toDomain(0))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, s)
	return nil
}

func (h *handlers) getStudent(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	s, err := h.Catalog.Student(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, s)
	return nil
}

func (h *handlers) updateStudent(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var req studentRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	s, err := h.Catalog.UpdateStudent(r.Context(), req.toDomain(id))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, s)
	return nil
}

func (h *handlers) deleteStudent(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.Catalog.DeleteStudent(r.Context(), id); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "student deleted"})
	return nil
}

func (h *handlers) listStudents(w http.ResponseWriter, r *http.Request) error {
	students, err := h.Catalog.Students(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, students)
	return nil
}

func (h *handlers) studentsByYearLevel(w http.ResponseWriter, r *http.Request) error {
	students, err := h.Catalog.StudentsByYearLevel(r.Context(), mux.Vars(r)["value"])
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, students)
	return nil
}

func (h *handlers) studentsByDepartment(w http.ResponseWriter, r *http.Request) error {
	students, err := h.Catalog.StudentsByDepartment(r.Context(), mux.Vars(r)["value"])
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, students)
	return nil
}

func (h *handlers) searchStudents(w http.ResponseWriter, r *http.Request) error {
	students, err := h.Catalog.SearchStudents(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, students)
	return nil
}
