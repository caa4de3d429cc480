// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the scheduler, so the scheduling rules stay independent of specific
// database technologies or persistence details.
//
// Implementations live under internal/platform: postgres for production
// deployments and sqlite for single-node and test use.
package store
