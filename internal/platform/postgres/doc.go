// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package, for deployments
// that reach the task database directly instead of through the hosted REST
// API. It also owns the schema migrations and a LISTEN-based change source.
package postgres
