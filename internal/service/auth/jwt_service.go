package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenTypeAccess is the only token type the service issues.
const TokenTypeAccess = "access"

// JWTService issues and validates the bearer tokens that identify a learner.
// Identity issuance proper lives outside this service; tokens are minted by
// the CLI or a trusted upstream sharing the signing secret.
type JWTService interface {
	// GenerateToken creates a signed access token for the learner.
	GenerateToken(ctx context.Context, learnerID uuid.UUID) (string, error)

	// ValidateToken validates the provided access token string and extracts the claims.
	// Returns ErrExpiredToken, ErrTokenNotYetValid, ErrWrongTokenType or
	// ErrInvalidToken when validation fails.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the validated contents of an access token.
type Claims struct {
	// LearnerID is the learner the token was issued for.
	LearnerID uuid.UUID `json:"lid,omitempty"`

	// TokenType is always "access" for tokens accepted by ValidateToken.
	TokenType string `json:"type,omitempty"`

	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
