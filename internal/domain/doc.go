// Package domain contains the core entities of the study scheduler: learning
// records, card identifiers, grades, lifecycle buckets, day keys and review
// logs. It has no knowledge of storage or transport.
//
// The scheduling rules that operate on these types live in the srs
// subpackage.
package domain
