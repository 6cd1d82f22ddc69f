package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type createAdminRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName" validate:"max=128"`
}

type studentTokenRequest struct {
	StudentID  int64 `json:"studentId" validate:"required,gt=0"`
	ActivityID int64 `json:"activityId" validate:"required,gt=0"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	res, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

func (h *handlers) createAdmin(w http.ResponseWriter, r *http.Request) error {
	var req createAdminRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	admin, err := h.Auth.CreateAdmin(r.Context(), req.Username, req.Password, req.FullName)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, admin)
	return nil
}

func (h *handlers) listAdmins(w http.ResponseWriter, r *http.Request) error {
	admins, err := h.Auth.ListAdmins(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, admins)
	return nil
}

func (h *handlers) adminByUsername(w http.ResponseWriter, r *http.Request) error {
	admin, err := h.Auth.AdminByUsername(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, admin)
	return nil
}

func (h *handlers) deleteAdmin(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.Auth.DeleteAdmin(r.Context(), id); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "admin deleted"})
	return nil
}

// studentToken issues the token an admin renders as the student's QR code.
func (h *handlers) studentToken(w http.ResponseWriter, r *http.Request) error {
	var req studentTokenRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	token, err := h.Auth.IssueStudentToken(r.Context(), req.StudentID, req.ActivityID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
	return nil
}
