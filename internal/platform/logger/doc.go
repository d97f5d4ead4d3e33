// Package logger provides structured logging functionality for the application.
//
// It builds log/slog JSON loggers from configuration and carries
// request-scoped loggers through context.Context.
package logger
