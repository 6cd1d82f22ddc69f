package http

import (
	"net/http"

	"quizha-server/internal/domain"
)

type answerRequest struct {
	ResultID       int64  `json:"studentActivityResultId" validate:"required,gt=0"`
	QuestionID     int64  `json:"questionId" validate:"required,gt=0"`
	SelectedOption string `json:"selectedOption" validate:"required"`
}

type answerKeyRequest struct {
	ResultID   int64 `json:"studentActivityResultId" validate:"required,gt=0"`
	QuestionID int64 `json:"questionId" validate:"required,gt=0"`
}

type correctCountResponse struct {
	CorrectCount int `json:"correctCount"`
}

func (h *handlers) recordAnswer(w http.ResponseWriter, r *http.Request) error {
	var req answerRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	a, err := h.Scoring.RecordAnswer(r.Context(), principalFrom(r.Context()), req.ResultID, req.QuestionID, req.SelectedOption)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, a)
	return nil
}

func (h *handlers) updateAnswer(w http.ResponseWriter, r *http.Request) error {
	var req answerRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	err := h.Catalog.UpdateAnswer(r.Context(), domain.Answer{
		ResultID:       req.ResultID,
		QuestionID:     req.QuestionID,
		SelectedOption: req.SelectedOption,
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "student answer updated"})
	return nil
}

func (h *handlers) deleteAnswer(w http.ResponseWriter, r *http.Request) error {
	var req answerKeyRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if err := h.Catalog.DeleteAnswer(r.Context(), req.ResultID, req.QuestionID); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "student answer deleted"})
	return nil
}

func (h *handlers) listAnswers(w http.ResponseWriter, r *http.Request) error {
	answers, err := h.Catalog.Answers(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, answers)
	return nil
}

func (h *handlers) answersByResult(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	answers, err := h.Scoring.AnswersForResult(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, answers)
	return nil
}

func (h *handlers) reviewResult(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	review, err := h.Scoring.ReviewResult(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, review)
	return nil
}

func (h *handlers) answersByQuestion(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	answers, err := h.Catalog.AnswersByQuestion(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, answers)
	return nil
}

func (h *handlers) countCorrect(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	n, err := h.Catalog.CountCorrectAnswers(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, correctCountResponse{CorrectCount: n})
	return nil
}
