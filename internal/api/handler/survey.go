package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/snapshotlabs/snapshot-api/internal/api/middleware"
	"github.com/snapshotlabs/snapshot-api/internal/api/response"
	"github.com/snapshotlabs/snapshot-api/internal/domain"
	"github.com/snapshotlabs/snapshot-api/internal/service"
)

// SurveyHandler handles the survey session lifecycle endpoints
type SurveyHandler struct {
	surveyService     *service.SurveyService
	completionService *service.CompletionService
	sharingService    *service.SharingService
	profileRepo       domain.ProfileRepository
}

// NewSurveyHandler creates a new survey handler
func NewSurveyHandler(
	surveyService *service.SurveyService,
	completionService *service.CompletionService,
	sharingService *service.SharingService,
	profileRepo domain.ProfileRepository,
) *SurveyHandler {
	return &SurveyHandler{
		surveyService:     surveyService,
		completionService: completionService,
		sharingService:    sharingService,
		profileRepo:       profileRepo,
	}
}

// Resolve loads or creates the subject's current survey session,
// merging any pre-auth pending buffer.
func (h *SurveyHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "user ID not found")
		return
	}

	var req struct {
		BufferID string `json:"buffer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Optional body
	}

	result, err := h.surveyService.ResolveSession(r.Context(), userID, req.BufferID)
	if err != nil {
		response.InternalError(w, "failed to resolve survey session")
		return
	}

	response.OK(w, map[string]any{
		"survey":  result.Survey,
		"resumed": result.Resumed,
		"step":    result.Step,
	})
}

// RecordPending stores an answer for a respondent who has not signed
// in yet. Keyed by a client-supplied opaque buffer id.
func (h *SurveyHandler) RecordPending(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BufferID   string `json:"buffer_id" validate:"required,max=128"`
		QuestionID string `json:"question_id" validate:"required,max=128"`
		Answer     any    `json:"answer"`
		Step       *int   `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if err := h.surveyService.RecordPending(r.Context(), req.BufferID, req.QuestionID, req.Answer, req.Step); err != nil {
		response.InternalError(w, "failed to store answer")
		return
	}

	response.OK(w, map[string]string{"message": "answer stored"})
}

// RecordAnswers saves one answer or a batch of answers on a session
func (h *SurveyHandler) RecordAnswers(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "user ID not found")
		return
	}

	surveyID, ok := surveyIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		QuestionID string         `json:"question_id"`
		Answer     any            `json:"answer"`
		Answers    map[string]any `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	batch := req.Answers
	if batch == nil {
		if req.QuestionID == "" {
			response.BadRequest(w, "question_id or answers is required")
			return
		}
		batch = map[string]any{req.QuestionID: req.Answer}
	}

	survey, err := h.surveyService.RecordAnswers(r.Context(), userID, surveyID, batch)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRateLimited):
			response.TooManyRequests(w, "too many saves, please wait before saving again")
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(w, "survey not found")
		case errors.Is(err, domain.ErrInvalidState):
			response.Conflict(w, "survey is already completed")
		default:
			response.InternalError(w, "failed to save answers")
		}
		return
	}

	response.OK(w, survey)
}

// Complete transitions the survey to completed. Duplicate attempts
// render the same success state as the first.
func (h *SurveyHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "user ID not found")
		return
	}

	surveyID, ok := surveyIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		// Client-side answer snapshot, used only as a materialization
		// fallback if the stored answers cannot be read back.
		Answers map[string]any `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Optional body
	}

	outcome, err := h.completionService.Complete(r.Context(), surveyID, userID, req.Answers)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "survey not found")
			return
		}
		response.InternalError(w, "failed to complete survey")
		return
	}

	response.OK(w, map[string]any{
		"status":  domain.StatusCompleted,
		"outcome": outcome,
	})
}

// Share makes a completed survey publicly visible and returns the
// subject's stable share slug.
func (h *SurveyHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "user ID not found")
		return
	}

	surveyID, ok := surveyIDParam(w, r)
	if !ok {
		return
	}

	slug, err := h.sharingService.MakePublic(r.Context(), surveyID, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidState):
			response.Conflict(w, "survey must be completed before sharing")
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(w, "survey not found")
		default:
			response.InternalError(w, "failed to share survey")
		}
		return
	}

	response.OK(w, map[string]string{"slug": slug})
}

// History lists the subject's completed surveys
func (h *SurveyHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "user ID not found")
		return
	}

	surveys, err := h.surveyService.History(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "failed to list surveys")
		return
	}

	response.OK(w, surveys)
}

// Profile returns the derived profile for one of the subject's surveys
func (h *SurveyHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "user ID not found")
		return
	}

	surveyID, ok := surveyIDParam(w, r)
	if !ok {
		return
	}

	// Ownership check before exposing derived data
	if _, err := h.sharingService.OwnedStatus(r.Context(), surveyID, userID); err != nil {
		response.NotFound(w, "survey not found")
		return
	}

	profile, err := h.profileRepo.GetBySurvey(r.Context(), surveyID)
	if err != nil {
		response.InternalError(w, "failed to load profile")
		return
	}
	if profile == nil {
		response.NotFound(w, "profile not found")
		return
	}

	response.OK(w, profile)
}

func surveyIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	surveyID, err := uuid.Parse(chi.URLParam(r, "surveyID"))
	if err != nil {
		response.BadRequest(w, "invalid survey ID")
		return uuid.Nil, false
	}
	return surveyID, true
}
