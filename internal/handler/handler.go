package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yo-lxmmm/teachwise/internal/contract"
	"github.com/yo-lxmmm/teachwise/internal/i18n"
	"github.com/yo-lxmmm/teachwise/internal/llm"
	"github.com/yo-lxmmm/teachwise/internal/model"
	"github.com/yo-lxmmm/teachwise/internal/session"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	svc        *session.Service
	provider   string
	keyPresent bool
}

// New creates a new Handler.
func New(svc *session.Service, provider string, keyPresent bool) *Handler {
	return &Handler{svc: svc, provider: provider, keyPresent: keyPresent}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/generate-question", h.handleGenerateQuestion)
	r.Post("/api/generate-scenario", h.handleGenerateScenario)
	r.Post("/api/student-response", h.handleStudentResponse)
	r.Post("/api/evaluate-session", h.handleEvaluateSession)
	r.Get("/health", h.handleHealth)
}

type questionRequest struct {
	GradeLevel       string `json:"gradeLevel"`
	Subject          string `json:"subject"`
	LearningOutcomes string `json:"learningOutcomes"`
	Concepts         string `json:"concepts"`
}

type scenarioRequest struct {
	questionRequest
	Question       string        `json:"question"`
	StudentPersona model.Persona `json:"studentPersona"`
}

type studentResponseRequest struct {
	Scenario       model.Scenario  `json:"scenario"`
	TeacherMessage string          `json:"teacherMessage"`
	ChatHistory    []model.Message `json:"chatHistory"`
}

type evaluationRequest struct {
	Scenario              model.Scenario  `json:"scenario"`
	SelectedMisconception int             `json:"selectedMisconception"`
	Intervention          string          `json:"intervention"`
	SelectedStrategy      string          `json:"selectedStrategy"`
	ChatHistory           []model.Message `json:"chatHistory"`
}

func (h *Handler) handleGenerateQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !model.IsValidGradeLevel(req.GradeLevel) {
		http.Error(w, "unknown grade level: "+req.GradeLevel, http.StatusBadRequest)
		return
	}

	payload, err := h.svc.GenerateQuestion(r.Context(), model.GradeLevel(req.GradeLevel),
		req.Subject, req.LearningOutcomes, req.Concepts)
	if err != nil {
		h.writeError(w, r, "ErrGenerateQuestion", err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) handleGenerateScenario(w http.ResponseWriter, r *http.Request) {
	var req scenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !model.IsValidGradeLevel(req.GradeLevel) {
		http.Error(w, "unknown grade level: "+req.GradeLevel, http.StatusBadRequest)
		return
	}

	scen, err := h.svc.GenerateScenario(r.Context(), model.GradeLevel(req.GradeLevel),
		req.Subject, req.LearningOutcomes, req.Concepts, req.Question, req.StudentPersona)
	if err != nil {
		h.writeError(w, r, "ErrGenerateScenario", err)
		return
	}
	writeJSON(w, http.StatusOK, scen)
}

func (h *Handler) handleStudentResponse(w http.ResponseWriter, r *http.Request) {
	var req studentResponseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	reply, err := h.svc.StudentResponse(r.Context(), &req.Scenario, req.TeacherMessage, req.ChatHistory)
	if err != nil {
		h.writeError(w, r, "ErrStudentResponse", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": reply})
}

func (h *Handler) handleEvaluateSession(w http.ResponseWriter, r *http.Request) {
	var req evaluationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	eval, err := h.svc.Evaluate(r.Context(), &req.Scenario, req.SelectedMisconception,
		req.Intervention, req.SelectedStrategy, req.ChatHistory)
	if err != nil {
		h.writeError(w, r, "ErrEvaluateSession", err)
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	keyStatus := "missing"
	if h.keyPresent {
		keyStatus = "available"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"provider": h.provider,
		"api_key":  keyStatus,
		"features": []string{"Teaching Simulation", "AI Student Responses", "Session Evaluation"},
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, i18n.T(r.Context(), "ErrInvalidRequest")+" "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps core errors to status codes: bad inputs are the client's
// fault, gateway failures point at the backend, and everything else is ours.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, msgID string, err error) {
	slog.Error("request failed", "path", r.URL.Path, "error", err)

	status := http.StatusInternalServerError
	body := map[string]any{
		"error":  i18n.T(r.Context(), msgID),
		"detail": err.Error(),
	}

	var personaErr *model.InvalidPersonaError
	var langErr *i18n.UnsupportedLanguageError
	var backendErr *llm.BackendError
	var parseErr *contract.ParseFailure
	switch {
	case errors.Is(err, session.ErrQuestionRequired),
		errors.Is(err, session.ErrDiagnosisIndex),
		errors.As(err, &personaErr),
		errors.As(err, &langErr):
		status = http.StatusBadRequest
	case errors.Is(err, llm.ErrUnavailable):
		status = http.StatusServiceUnavailable
		body["error"] = i18n.T(r.Context(), "ErrBackendUnavailable")
	case errors.As(err, &backendErr):
		status = http.StatusBadGateway
	case errors.As(err, &parseErr):
		status = http.StatusBadGateway
		body["field"] = parseErr.Field
		body["retryable"] = parseErr.Retryable
	}

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
