package http

import (
	"net/http"

	"quizha-server/internal/domain"
)

type questionRequest struct {
	ActivityID    int64  `json:"activityId" validate:"required,gt=0"`
	QuestionText  string `json:"questionText" validate:"required"`
	OptionA       string `json:"optionA" validate:"required"`
	OptionB       string `json:"optionB" validate:"required"`
	OptionC       string `json:"optionC" validate:"required"`
	OptionD       string `json:"optionD" validate:"required"`
	CorrectOption string `json:"correctOption" validate:"required,oneof=A B C D a b c d"`
}

func (req questionRequest) toDomain(id int64) domain.Question {
	return domain.Question{
		ID:            id,
		ActivityID:    req.ActivityID,
		QuestionText:  req.QuestionText,
		OptionA:       req.OptionA,
		OptionB:       req.OptionB,
		OptionC:       req.OptionC,
		OptionD:       req.OptionD,
		CorrectOption: req.CorrectOption,
	}
}

type deletedResponse struct {
	Deleted int64 `json:"deleted"`
}

// questionsByActivity serves admins the full questions and students the questions without answers.
func (h *handlers) questionsByActivity(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	p := principalFrom(r.Context())
	if err := requireSameActivity(p, id); err != nil {
		return err
	}
	questions, err := h.Catalog.QuestionsByActivity(r.Context(), id)
	if err != nil {
		return err
	}
	if _, ok := p.(domain.StudentPrincipal); ok {
		for i := range questions {
			questions[i].CorrectOption = ""
		}
	}
	writeJSON(w, http.StatusOK, questions)
	return nil
}

func (h *handlers) countQuestionsByActivity(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := requireSameActivity(principalFrom(r.Context()), id); err != nil {
		return err
	}
	n, err := h.Catalog.CountQuestionsByActivity(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
	return nil
}

func (h *handlers) createQuestion(w http.ResponseWriter, r *http.Request) error {
	var req questionRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	q, err := h.Catalog.CreateQuestion(r.Context(), req.toDomain(0))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, q)
	return nil
}

func (h *handlers) listQuestions(w http.ResponseWriter, r *http.Request) error {
	questions, err := h.Catalog.Questions(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, questions)
	return nil
}

func (h *handlers) getQuestion(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	q, err := h.Catalog.Question(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, q)
	return nil
}

func (h *handlers) updateQuestion(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var req questionRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	q, err := h.Catalog.UpdateQuestion(r.Context(), req.toDomain(id))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, q)
	return nil
}

func (h *handlers) deleteQuestion(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.Catalog.DeleteQuestion(r.Context(), id); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "question deleted"})
	return nil
}

func (h *handlers) deleteQuestionsByActivity(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	n, err := h.Catalog.DeleteQuestionsByActivity(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, deletedResponse{Deleted: n})
	return nil
}
