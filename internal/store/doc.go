// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, allowing business rules to remain
// independent of whether tasks live behind the hosted REST API or in a
// directly reachable Postgres database.
package store
