package auth

import "errors"

// Token validation failures. The API maps ErrExpiredToken to its own message;
// the rest are reported as an invalid token.
var (
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("authentication token has expired")
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")
	ErrMissingToken     = errors.New("authentication token is missing")
	ErrWrongTokenType   = errors.New("wrong authentication token type")
	ErrInvalidLearnerID = errors.New("token does not identify a learner")
)
