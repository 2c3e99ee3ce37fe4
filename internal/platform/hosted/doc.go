// Package hosted is a client for the hosted data service that owns task
// persistence, user authentication and change notification.
//
// The service exposes three APIs under a single project URL:
//   - /auth/v1: password sign-in, token refresh, sign-out and user lookup
//   - /rest/v1: a PostgREST interface to the project's tables
//   - /realtime/v1/websocket: Phoenix channels carrying postgres_changes
//
// TaskStore adapts the REST API to store.TaskStore and RealtimeSource adapts
// the websocket to the realtime package's Source interface.
package hosted
