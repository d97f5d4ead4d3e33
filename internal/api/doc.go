// Package api handles incoming HTTP requests for the scheduler: request
// decoding and validation, mapping domain errors to status codes, and
// response formatting. Handlers depend on small service interfaces so they
// can be exercised with httptest and fakes.
package api
