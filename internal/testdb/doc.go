// Package testdb connects integration tests to a real Postgres database.
//
// Tests using it are built with the integration tag and skip themselves when
// no database URL is configured:
//
//	TASKBOARD_TEST_DATABASE_URL=postgres://... go test -tags=integration ./...
package testdb
