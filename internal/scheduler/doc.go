// Package scheduler runs the lifecycle reconciler: a periodic sweep that
// rewrites the cached lifecycle projection of stored learning records
// (learning to due once the next review has passed, day counters cleared
// after the learner's day rolls over).
//
// Reads never depend on the sweep; the study service reclassifies every
// record it loads. The sweep only keeps the stored columns useful for
// reporting and indexed queries.
package scheduler
