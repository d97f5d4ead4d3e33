// Package testdb provides PostgreSQL helpers for integration tests: opening
// the test database, applying the embedded migrations and isolating each
// test in a rolled-back transaction.
//
// Tests using it are tagged with the integration build tag and skip when no
// database URL is configured:
//
//	DATABASE_URL=postgres://... go test -tags=integration ./...
package testdb
