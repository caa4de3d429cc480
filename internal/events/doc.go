// Package events decouples the study service from the side effects of a
// committed review.
//
// The study service publishes a review_recorded event once a learning record
// write succeeds. ReviewLogHandler subscribes to it and appends the entry to
// the review audit trail. InMemoryEventEmitter delivers synchronously on the
// caller's goroutine.
package events
