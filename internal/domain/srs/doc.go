// Package srs implements the spaced-repetition scheduling rules: the card
// update rule, the lifecycle classifier, the study queue builder and the
// session status aggregator.
//
// Memory strength follows the FSRS-6 model reduced to two grades. Again maps
// to FSRS grade 1 and Good to grade 3. Everything in this package is pure and
// clock-free; callers pass the current instant and the learner's timezone.
package srs
