// Package study orchestrates study sessions for a learner over one content
// unit. It loads the learner's records and the unit's catalog, runs the pure
// scheduling functions in internal/domain/srs, and writes each reviewed card
// back through the record store with optimistic concurrency.
//
// Every read reclassifies records at the current instant, so results never
// depend on the background reconciler having run. Each card commit is atomic
// on its own; a session never spans a cross-card transaction.
package study
