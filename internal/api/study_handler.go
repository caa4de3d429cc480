package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/api/shared"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/redact"
	"github.com/phrazzld/scry-study/internal/service/study"
)

// StudyHandler serves the study endpoints for the authenticated learner.
type StudyHandler struct {
	studyService study.Service
	logger       *slog.Logger
}

// NewStudyHandler creates a new StudyHandler.
func NewStudyHandler(studyService study.Service, logger *slog.Logger) *StudyHandler {
	if studyService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("studyService cannot be nil for StudyHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StudyHandler{
		studyService: studyService,
		logger:       logger.With(slog.String("component", "study_handler")),
	}
}

// StartSession handles POST /units/{unitID}/sessions. The body is optional;
// {"study_again": true} builds a study-again pass.
func (h *StudyHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	scope, ok := handleLearnerAndLocation(w, r, log)
	if !ok {
		return
	}
	unitID, err := getPathUnitID(r, "unitID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req StartSessionRequest
	if err := shared.DecodeJSON(r, &req, true); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	plan, err := h.studyService.StartSession(r.Context(), scope.learnerID, unitID, req.StudyAgain, scope.loc)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start session")
		return
	}

	log.Debug("session started",
		slog.String("unit_id", unitID),
		slog.Int("queue_length", len(plan.Queue)),
		slog.Bool("study_again", plan.StudyAgain))
	shared.RespondWithJSON(w, r, http.StatusOK, planToResponse(plan))
}

// GetStatus handles GET /units/{unitID}/status.
func (h *StudyHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	scope, ok := handleLearnerAndLocation(w, r, log)
	if !ok {
		return
	}
	unitID, err := getPathUnitID(r, "unitID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	status, err := h.studyService.GetStatus(r.Context(), scope.learnerID, unitID, scope.loc)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get status")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, statusToResponse(status))
}

// SubmitAnswer handles POST /cards/{cardID}/answer.
func (h *StudyHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	scope, cardID, ok := handleCardRequest(w, r, log)
	if !ok {
		return
	}

	var req AnswerRequest
	if err := shared.DecodeJSON(r, &req, false); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("card_id", cardID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	grade, err := domain.ParseGrade(req.Grade)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	rec, err := h.studyService.RecordAnswer(r.Context(), scope.learnerID, cardID, grade, scope.loc)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit answer")
		return
	}

	log.Debug("answer recorded",
		slog.String("card_id", cardID.String()),
		slog.String("grade", grade.String()),
		slog.Time("next_review", rec.NextReview))
	shared.RespondWithJSON(w, r, http.StatusOK, recordToResponse(rec))
}

// StudyAgain handles POST /cards/{cardID}/study-again.
func (h *StudyHandler) StudyAgain(w http.ResponseWriter, r *http.Request) {
	h.cardAction(w, r, "Failed to record study again", h.studyService.RecordStudyAgain)
}

// RemoveCard handles POST /cards/{cardID}/remove.
func (h *StudyHandler) RemoveCard(w http.ResponseWriter, r *http.Request) {
	h.cardAction(w, r, "Failed to remove card", h.studyService.RemoveCard)
}

// ReinstateCard handles POST /cards/{cardID}/reinstate.
func (h *StudyHandler) ReinstateCard(w http.ResponseWriter, r *http.Request) {
	h.cardAction(w, r, "Failed to reinstate card", h.studyService.ReinstateCard)
}

// PostponeCard handles POST /cards/{cardID}/postpone.
func (h *StudyHandler) PostponeCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	scope, cardID, ok := handleCardRequest(w, r, log)
	if !ok {
		return
	}

	var req PostponeRequest
	if err := shared.DecodeJSON(r, &req, false); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("card_id", cardID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	rec, err := h.studyService.PostponeCard(r.Context(), scope.learnerID, cardID, req.Days, scope.loc)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to postpone card")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, recordToResponse(rec))
}

// ListReviews handles GET /cards/{cardID}/reviews.
func (h *StudyHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	scope, cardID, ok := handleCardRequest(w, r, log)
	if !ok {
		return
	}

	entries, err := h.studyService.ListReviews(r.Context(), scope.learnerID, cardID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list reviews")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, reviewsToResponse(cardID, entries))
}

type cardActionFunc func(
	ctx context.Context,
	learnerID uuid.UUID,
	cardID domain.CardID,
	loc *time.Location,
) (*domain.LearningRecord, error)

func (h *StudyHandler) cardAction(w http.ResponseWriter, r *http.Request, fallback string, action cardActionFunc) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	scope, cardID, ok := handleCardRequest(w, r, log)
	if !ok {
		return
	}

	rec, err := action(r.Context(), scope.learnerID, cardID, scope.loc)
	if err != nil {
		HandleAPIError(w, r, err, fallback)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, recordToResponse(rec))
}
