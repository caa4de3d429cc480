package api

import (
	"time"

	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/domain/srs"
	"github.com/phrazzld/scry-study/internal/service/study"
)

// StartSessionRequest defines the optional payload for starting a session.
type StartSessionRequest struct {
	StudyAgain bool `json:"study_again"`
}

// AnswerRequest defines the payload for grading a card.
type AnswerRequest struct {
	Grade string `json:"grade" validate:"required,oneof=again good"`
}

// PostponeRequest defines the payload for postponing a card.
type PostponeRequest struct {
	Days int `json:"days" validate:"required,gte=1"`
}

// StatusResponse is the learner's standing on a unit.
type StatusResponse struct {
	UnitID       string        `json:"unit_id"`
	Day          domain.DayKey `json:"day"`
	Status       srs.Status    `json:"status"`
	Framing      srs.Framing   `json:"framing"`
	NewAllowance int           `json:"new_allowance"`
	TotalCards   int           `json:"total_cards"`
}

// SessionResponse is a status snapshot plus the ordered card queue.
type SessionResponse struct {
	StatusResponse
	StudyAgain bool     `json:"study_again"`
	Queue      []string `json:"queue"`
}

// CardResponse is the scheduling state of one card as shown to a learner.
// Internal memory parameters stay out of the payload except stability and
// difficulty, which clients chart.
type CardResponse struct {
	CardID         string           `json:"card_id"`
	Lifecycle      domain.Lifecycle `json:"lifecycle"`
	Difficulty     float64          `json:"difficulty"`
	Stability      float64          `json:"stability"`
	Reps           int              `json:"reps"`
	Lapses         int              `json:"lapses"`
	LastReview     *time.Time       `json:"last_review,omitempty"`
	NextReview     time.Time        `json:"next_review"`
	StudiedToday   bool             `json:"studied_today"`
	SameDayReviews int              `json:"same_day_reviews"`
	Version        int64            `json:"version"`
}

// ReviewResponse is one entry of a card's review history.
type ReviewResponse struct {
	ID              string            `json:"id"`
	Grade           string            `json:"grade,omitempty"`
	Mode            domain.ReviewMode `json:"mode"`
	ReviewedAt      time.Time         `json:"reviewed_at"`
	ElapsedDays     float64           `json:"elapsed_days"`
	StabilityBefore float64           `json:"stability_before"`
	StabilityAfter  float64           `json:"stability_after"`
	DifficultyAfter float64           `json:"difficulty_after"`
	NextReview      time.Time         `json:"next_review"`
}

// ReviewsResponse wraps a card's review history.
type ReviewsResponse struct {
	CardID  string           `json:"card_id"`
	Reviews []ReviewResponse `json:"reviews"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

func statusToResponse(s *study.UnitStatus) StatusResponse {
	return StatusResponse{
		UnitID:       s.UnitID,
		Day:          s.Day,
		Status:       s.Status,
		Framing:      s.Framing,
		NewAllowance: s.NewAllowance,
		TotalCards:   s.TotalCards,
	}
}

func planToResponse(p *study.SessionPlan) SessionResponse {
	queue := make([]string, len(p.Queue))
	for i, id := range p.Queue {
		queue[i] = id.String()
	}
	return SessionResponse{
		StatusResponse: statusToResponse(&p.UnitStatus),
		StudyAgain:     p.StudyAgain,
		Queue:          queue,
	}
}

func recordToResponse(rec *domain.LearningRecord) CardResponse {
	resp := CardResponse{
		CardID:         rec.CardID.String(),
		Lifecycle:      rec.Lifecycle,
		Difficulty:     rec.Difficulty,
		Stability:      rec.Stability,
		Reps:           rec.Reps,
		Lapses:         rec.Lapses,
		NextReview:     rec.NextReview,
		StudiedToday:   rec.StudiedToday,
		SameDayReviews: rec.SameDayReviews,
		Version:        rec.Version,
	}
	if !rec.LastReview.IsZero() {
		last := rec.LastReview
		resp.LastReview = &last
	}
	return resp
}

func reviewsToResponse(cardID domain.CardID, entries []*domain.ReviewLog) ReviewsResponse {
	reviews := make([]ReviewResponse, 0, len(entries))
	for _, e := range entries {
		r := ReviewResponse{
			ID:              e.ID.String(),
			Mode:            e.Mode,
			ReviewedAt:      e.ReviewedAt,
			ElapsedDays:     e.ElapsedDays,
			StabilityBefore: e.StabilityBefore,
			StabilityAfter:  e.StabilityAfter,
			DifficultyAfter: e.DifficultyAfter,
			NextReview:      e.NextReview,
		}
		if e.Grade.IsValid() {
			r.Grade = e.Grade.String()
		}
		reviews = append(reviews, r)
	}
	return ReviewsResponse{CardID: cardID.String(), Reviews: reviews}
}
