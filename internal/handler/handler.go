package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mertcaliskan34/ExamGenerator/internal/auth"
	"github.com/mertcaliskan34/ExamGenerator/internal/exam"
	"github.com/mertcaliskan34/ExamGenerator/internal/model"
	"github.com/mertcaliskan34/ExamGenerator/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store     *store.Store
	exams     *exam.Service
	tokens    *auth.Service
	validate  *validator.Validate
	maxUpload int64
}

// New creates a new Handler.
func New(s *store.Store, exams *exam.Service, tokens *auth.Service, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Handler{
		store:     s,
		exams:     exams,
		tokens:    tokens,
		validate:  validator.New(),
		maxUpload: maxUpload,
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", h.handleRegister)
		api.Post("/auth/login", h.handleLogin)

		api.Group(func(priv chi.Router) {
			priv.Use(h.requireAuth)
			priv.Post("/exams/create", h.handleCreateExam)
			priv.Get("/exams", h.handleListExams)
			priv.Get("/exams/{examID}", h.handleGetExam)
			priv.Delete("/exams/{examID}", h.handleDeleteExam)
			priv.Post("/exams/submit", h.handleSubmitExam)
			priv.Get("/results", h.handleListResults)
			priv.Get("/results/{resultID}", h.handleGetResult)
		})
	})
}

func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("pdf")
	if err != nil {
		respondError(w, http.StatusBadRequest, "pdf file is required")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		respondError(w, http.StatusBadRequest, "only PDF files are allowed")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	cfg, err := parseGenerationConfig(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.exams.CreateExam(r.Context(), user.ID, header.Filename, data, cfg)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, created)
}

// parseGenerationConfig reads the multipart form fields with the same defaults
// the original client relied on.
func parseGenerationConfig(r *http.Request) (model.GenerationConfig, error) {
	cfg := model.GenerationConfig{
		ExamType:     model.ExamMixed,
		Difficulty:   model.DifficultyMedium,
		NumQuestions: 10,
	}
	if v := r.FormValue("exam_type"); v != "" {
		cfg.ExamType = model.ExamType(v)
	}
	if v := r.FormValue("difficulty"); v != "" {
		cfg.Difficulty = model.Difficulty(v)
	}
	if v := r.FormValue("num_questions"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, errors.New("num_questions must be an integer")
		}
		cfg.NumQuestions = n
	}
	return cfg, nil
}

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	summaries, err := h.exams.ListExams(user.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if summaries == nil {
		summaries = []model.ExamSummary{}
	}
	respondJSON(w, http.StatusOK, summaries)
}

func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	found, err := h.exams.GetExam(user.ID, chi.URLParam(r, "examID"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, found)
}

func (h *Handler) handleDeleteExam(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	if err := h.exams.DeleteExam(user.ID, chi.URLParam(r, "examID")); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "exam deleted"})
}

type submitRequest struct {
	ExamID  string `json:"exam_id" validate:"required"`
	Answers []struct {
		QuestionID string `json:"question_id" validate:"required"`
		UserAnswer string `json:"user_answer"`
	} `json:"answers" validate:"dive"`
}

func (h *Handler) handleSubmitExam(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed submission: "+err.Error())
		return
	}

	sub := model.Submission{ExamID: req.ExamID}
	for _, a := range req.Answers {
		sub.Answers = append(sub.Answers, model.Answer{
			QuestionID: a.QuestionID,
			UserAnswer: a.UserAnswer,
		})
	}

	result, err := h.exams.SubmitExam(r.Context(), user.ID, sub)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListResults(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	summaries, err := h.exams.ListResults(user.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if summaries == nil {
		summaries = []model.ResultSummary{}
	}
	respondJSON(w, http.StatusOK, summaries)
}

func (h *Handler) handleGetResult(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	result, err := h.exams.GetResult(user.ID, chi.URLParam(r, "resultID"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// respondServiceError maps the service error taxonomy to HTTP statuses.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidConfig):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrGenerationInvalid):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, model.ErrExtractionFailed), errors.Is(err, model.ErrGeneratorUnavailable):
		respondError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, model.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	default:
		slog.Error("internal error", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
