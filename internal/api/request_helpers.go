package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/api/shared"
	"github.com/phrazzld/scry-study/internal/domain"
)

// TimezoneQueryParam names the IANA zone used for day boundaries, e.g.
// ?tz=Asia/Tokyo. Without it the server's configured zone applies.
const TimezoneQueryParam = "tz"

// getPathCardID parses a "<unit>-<key>" card ID from the URL path.
func getPathCardID(r *http.Request, paramName string) (domain.CardID, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return domain.CardID{}, fmt.Errorf("%w: %s is required", domain.ErrInvalidCardID, paramName)
	}
	return domain.ParseCardID(raw)
}

// getPathUnitID extracts a unit ID from the URL path.
func getPathUnitID(r *http.Request, paramName string) (string, error) {
	unitID := strings.TrimSpace(chi.URLParam(r, paramName))
	if unitID == "" {
		return "", fmt.Errorf("%w: %s is required", domain.ErrValidation, paramName)
	}
	return unitID, nil
}

// getLocation resolves the tz query parameter. A missing parameter yields nil
// so the service falls back to its default zone.
func getLocation(r *http.Request) (*time.Location, error) {
	name := strings.TrimSpace(r.URL.Query().Get(TimezoneQueryParam))
	if name == "" {
		return nil, nil
	}
	// LoadLocation also accepts file-relative names; restrict to zone names.
	if strings.Contains(name, "..") || strings.HasPrefix(name, "/") {
		return nil, fmt.Errorf("%w: timezone %q", domain.ErrInvalidFormat, name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", domain.ErrInvalidFormat, name, err)
	}
	return loc, nil
}

// requestScope is what every authenticated study endpoint needs.
type requestScope struct {
	learnerID uuid.UUID
	loc       *time.Location
}

// handleLearnerAndLocation extracts the learner and timezone, writing an
// error response and returning false if either is unusable.
func handleLearnerAndLocation(w http.ResponseWriter, r *http.Request, log *slog.Logger) (requestScope, bool) {
	learnerID, ok := shared.GetLearnerID(r.Context())
	if !ok {
		log.Warn("learner ID not found or invalid in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return requestScope{}, false
	}

	loc, err := getLocation(r)
	if err != nil {
		log.Warn("invalid timezone", slog.String("tz", r.URL.Query().Get(TimezoneQueryParam)))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid timezone", err)
		return requestScope{}, false
	}

	return requestScope{learnerID: learnerID, loc: loc}, true
}

// handleCardRequest is handleLearnerAndLocation plus the {cardID} path param.
func handleCardRequest(
	w http.ResponseWriter,
	r *http.Request,
	log *slog.Logger,
) (requestScope, domain.CardID, bool) {
	scope, ok := handleLearnerAndLocation(w, r, log)
	if !ok {
		return requestScope{}, domain.CardID{}, false
	}

	cardID, err := getPathCardID(r, "cardID")
	if err != nil {
		log.Warn("invalid card ID", slog.String("card_id", chi.URLParam(r, "cardID")))
		HandleAPIError(w, r, err, "")
		return requestScope{}, domain.CardID{}, false
	}
	return scope, cardID, true
}
