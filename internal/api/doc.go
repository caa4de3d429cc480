// Package api exposes the study service over HTTP: session planning, grading,
// card management and review history, each scoped to the learner named by the
// bearer token.
package api
