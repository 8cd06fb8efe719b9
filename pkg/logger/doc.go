// Package logger provides a context-aware wrapper around Go's slog package
// adding functional options for configuration, helper attribute constructors,
// and transparent injection of values stored in context.Context.
//
// New builds a *slog.Logger whose handler is either slog.NewTextHandler or
// slog.NewJSONHandler, wrapped in a LogHandlerDecorator that runs every
// registered ContextExtractor before delegating. Extractors are the way
// request-scoped values such as a request id end up on every record logged
// with a context.
//
// Attribute helpers (Error, SessionID, Store, Outcome, Component, ...) keep
// key names consistent across the session packages.
//
// # Usage
//
//	import "github.com/dmitrymomot/sessionkit/pkg/logger"
//
//	log := logger.New(
//	    logger.WithFormat(logger.FormatText),
//	    logger.WithLevelName("debug"),
//	    logger.WithService("sessiond"),
//	    logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	log.InfoContext(ctx, "session persisted", logger.SessionID(id))
package logger
