package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"quizdeck/internal/app"
	"quizdeck/internal/domain"
)

// Handler exposes the quiz platform's REST API. Authentication happens
// upstream; identity arrives on X-User-Id / X-User-Role headers and the
// handler only gates on role.
type Handler struct {
	submissions *app.SubmissionService
	catalog     *app.CatalogService
}

func NewHandler(submissions *app.SubmissionService, catalog *app.CatalogService) *Handler {
	return &Handler{submissions: submissions, catalog: catalog}
}

// Register wires the API routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/results", h.submitQuiz)
	mux.HandleFunc("GET /api/results", h.listResults)
	mux.HandleFunc("GET /api/results/{id}", h.getResult)
	mux.HandleFunc("DELETE /api/results/{id}", h.deleteResult)

	mux.HandleFunc("GET /api/quizzes", h.listQuizzes)
	mux.HandleFunc("POST /api/quizzes", h.createQuiz)
	mux.HandleFunc("GET /api/quizzes/{id}", h.getQuiz)
	mux.HandleFunc("PUT /api/quizzes/{id}", h.updateQuiz)
	mux.HandleFunc("DELETE /api/quizzes/{id}", h.deleteQuiz)
	mux.HandleFunc("GET /api/quizzes/{id}/questions", h.listQuestions)

	mux.HandleFunc("POST /api/questions", h.createQuestion)
	mux.HandleFunc("GET /api/questions/{id}", h.getQuestion)
	mux.HandleFunc("PUT /api/questions/{id}", h.updateQuestion)
	mux.HandleFunc("DELETE /api/questions/{id}", h.deleteQuestion)
}

type identity struct {
	UserID string
	Role   string
}

func callerIdentity(r *http.Request) (identity, bool) {
	id := identity{
		UserID: r.Header.Get("X-User-Id"),
		Role:   r.Header.Get("X-User-Role"),
	}
	return id, id.UserID != ""
}

type submitRequest struct {
	QuizID    string                   `json:"quizId"`
	Answers   []domain.SubmittedAnswer `json:"answers"`
	TimeTaken int                      `json:"timeTaken"`
}

func (h *Handler) submitQuiz(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request. quizId and answers array are required.", err)
		return
	}
	if req.QuizID == "" || req.Answers == nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request. quizId and answers array are required.")
		return
	}

	result, err := h.submissions.Submit(r.Context(), caller.UserID, req.QuizID, req.TimeTaken, req.Answers)
	if err != nil {
		h.writeFailure(w, err, "Error submitting quiz")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Quiz submitted successfully",
		"result":  result,
	})
}

func (h *Handler) listResults(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}
	results, err := h.submissions.ResultsByUser(r.Context(), caller.UserID)
	if err != nil {
		h.writeFailure(w, err, "Error fetching results")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) getResult(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerIdentity(r); !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}
	detail, err := h.submissions.ResultByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeFailure(w, err, "Error fetching result")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) deleteResult(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	if err := h.submissions.DeleteResult(r.Context(), r.PathValue("id")); err != nil {
		h.writeFailure(w, err, "Error deleting result")
		return
	}
	writeMessage(w, http.StatusOK, "Result deleted successfully")
}

type quizRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	TimeLimit   int               `json:"timeLimit"`
	Status      domain.QuizStatus `json:"status"`
}

func (h *Handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if caller.Role != "admin" {
		writeMessage(w, http.StatusForbidden, "admin role required")
		return
	}

	var req quizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid quiz payload", err)
		return
	}
	quiz, err := h.catalog.CreateQuiz(r.Context(), caller.UserID, app.QuizInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		TimeLimit:   req.TimeLimit,
		Status:      req.Status,
	})
	if err != nil {
		h.writeFailure(w, err, "Error creating quiz")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Quiz created successfully",
		"quiz":    quiz,
	})
}

func (h *Handler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}
	quizzes, err := h.catalog.ListQuizzes(r.Context(), caller.Role)
	if err != nil {
		h.writeFailure(w, err, "Error fetching quizzes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(quizzes),
		"quizzes": quizzes,
	})
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerIdentity(r); !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}
	quiz, err := h.catalog.GetQuiz(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeFailure(w, err, "Error fetching quiz")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quiz": quiz})
}

type quizPatchRequest struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Category    *string            `json:"category"`
	TimeLimit   *int               `json:"timeLimit"`
	Status      *domain.QuizStatus `json:"status"`
}

func (h *Handler) updateQuiz(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var req quizPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid quiz payload", err)
		return
	}
	quiz, err := h.catalog.UpdateQuiz(r.Context(), r.PathValue("id"), app.QuizPatch{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		TimeLimit:   req.TimeLimit,
		Status:      req.Status,
	})
	if err != nil {
		h.writeFailure(w, err, "Error updating quiz")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Quiz updated successfully",
		"quiz":    quiz,
	})
}

func (h *Handler) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	if err := h.catalog.DeleteQuiz(r.Context(), r.PathValue("id")); err != nil {
		h.writeFailure(w, err, "Error deleting quiz")
		return
	}
	writeMessage(w, http.StatusOK, "Quiz deleted successfully")
}

func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerIdentity(r); !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}
	questions, err := h.catalog.QuestionsByQuiz(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeFailure(w, err, "Error fetching questions")
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

type questionRequest struct {
	QuizID        string   `json:"quizId"`
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Marks         int      `json:"marks"`
}

func (h *Handler) createQuestion(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	// Options must arrive as a structured JSON array; encoded-string forms
	// are rejected by the decoder here rather than coerced.
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid question payload", err)
		return
	}
	question, err := h.catalog.CreateQuestion(r.Context(), app.QuestionInput{
		QuizID:        req.QuizID,
		QuestionText:  req.QuestionText,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Marks:         req.Marks,
	})
	if err != nil {
		h.writeFailure(w, err, "Error creating question")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Question created successfully",
		"question": question,
	})
}

func (h *Handler) getQuestion(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerIdentity(r); !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}
	question, err := h.catalog.GetQuestion(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeFailure(w, err, "Error fetching question")
		return
	}
	writeJSON(w, http.StatusOK, question)
}

type questionPatchRequest struct {
	QuestionText  *string   `json:"questionText"`
	Options       *[]string `json:"options"`
	CorrectAnswer *string   `json:"correctAnswer"`
	Marks         *int      `json:"marks"`
}

func (h *Handler) updateQuestion(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var req questionPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid question payload", err)
		return
	}
	question, err := h.catalog.UpdateQuestion(r.Context(), r.PathValue("id"), app.QuestionPatch{
		QuestionText:  req.QuestionText,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Marks:         req.Marks,
	})
	if err != nil {
		h.writeFailure(w, err, "Error updating question")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Question updated successfully",
		"question": question,
	})
}

func (h *Handler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	if err := h.catalog.DeleteQuestion(r.Context(), r.PathValue("id")); err != nil {
		h.writeFailure(w, err, "Error deleting question")
		return
	}
	writeMessage(w, http.StatusOK, "Question deleted successfully")
}

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	caller, ok := callerIdentity(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return false
	}
	if caller.Role != "admin" {
		writeMessage(w, http.StatusForbidden, "admin role required")
		return false
	}
	return true
}

// writeFailure maps domain errors onto the API's status codes: sentinel
// validation errors are 400, missing entities 404, everything else is a
// storage-level 500.
func (h *Handler) writeFailure(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrResultNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidSubmission),
		errors.Is(err, domain.ErrInvalidQuiz),
		errors.Is(err, domain.ErrInvalidQuestion),
		errors.Is(err, domain.ErrTooFewOptions),
		errors.Is(err, domain.ErrCorrectAnswerNotOption):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeMessage(w, http.StatusForbidden, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"message": message})
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	writeJSON(w, status, map[string]any{"message": message, "error": err.Error()})
}
