package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vntrieu/moodscreen/internal/questionnaire"
	"github.com/vntrieu/moodscreen/internal/session"
	"github.com/vntrieu/moodscreen/internal/store"
	"github.com/vntrieu/moodscreen/internal/survey"
)

// SurveyHandler handles questionnaire, session and submission requests.
type SurveyHandler struct {
	svc    *survey.Service
	logger *zap.Logger
}

// NewSurveyHandler creates a new SurveyHandler.
func NewSurveyHandler(svc *survey.Service, logger *zap.Logger) *SurveyHandler {
	return &SurveyHandler{svc: svc, logger: orNop(logger)}
}

// SessionResponse carries a server-issued session id.
type SessionResponse struct {
	SessionID int64 `json:"session_id"`
}

// Questionnaire handles GET /api/questionnaire
//
// @Summary      Get questionnaire
// @Description  Questions and answer options of the PHQ-9 form.
// @Tags         survey
// @Produce      json
// @Success      200  {object}  questionnaire.Questionnaire
// @Router       /api/questionnaire [get]
func (h *SurveyHandler) Questionnaire(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, h.logger, http.StatusOK, h.svc.Questionnaire())
}

// CreateSession handles POST /api/sessions
//
// @Summary      Create session
// @Description  Issue a random 9-digit session id for a new form load.
// @Tags         survey
// @Produce      json
// @Success      201  {object}  SessionResponse
// @Router       /api/sessions [post]
func (h *SurveyHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, h.logger, http.StatusCreated, SessionResponse{SessionID: session.NewID()})
}

// Submit handles POST /survay and POST /survey
//
// @Summary      Submit questionnaire
// @Description  Accepts {"session_id": n, "answers": {question: answer}} or {"answers": [n, ...]}.
// @Description  Scores ordinal answers and opens the follow-up chat.
// @Tags         survey
// @Accept       json
// @Produce      json
// @Param        body  body      survey.Request  true  "Submission"
// @Success      201   {object}  survey.Result
// @Failure      400   {string}  string  "Invalid answers or session id"
// @Failure      500   {string}  string  "Server error"
// @Router       /survay [post]
// @Router       /survey [post]
func (h *SurveyHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req survey.Request
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		if errors.Is(err, questionnaire.ErrInvalidAnswers) || errors.Is(err, survey.ErrInvalidSession) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("submit survey", zap.String("request_id", requestID(r)), zap.Error(err))
		http.Error(w, "failed to store submission", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, h.logger, http.StatusCreated, res)
}

// GetSubmission handles GET /api/submissions/{id}
//
// @Summary      Get submission
// @Tags         survey
// @Produce      json
// @Param        id   path      string  true  "Submission id"
// @Success      200  {object}  store.Submission
// @Failure      404  {string}  string  "Submission not found"
// @Failure      500  {string}  string  "Server error"
// @Router       /api/submissions/{id} [get]
func (h *SurveyHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "submission not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get submission", zap.String("request_id", requestID(r)), zap.Error(err))
		http.Error(w, "failed to get submission", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, sub)
}

// ListSessionSubmissions handles GET /api/sessions/{session_id}/submissions
//
// @Summary      List session submissions
// @Tags         survey
// @Produce      json
// @Param        session_id  path      int  true  "9-digit session id"
// @Success      200         {array}   store.Submission
// @Failure      400         {string}  string  "Invalid session id"
// @Failure      500         {string}  string  "Server error"
// @Router       /api/sessions/{session_id}/submissions [get]
func (h *SurveyHandler) ListSessionSubmissions(w http.ResponseWriter, r *http.Request) {
	id, err := session.ParseID(chi.URLParam(r, "session_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	subs, err := h.svc.ListBySession(r.Context(), id)
	if err != nil {
		h.logger.Error("list submissions", zap.String("request_id", requestID(r)), zap.Error(err))
		http.Error(w, "failed to list submissions", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, subs)
}
