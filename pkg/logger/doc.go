// Package logger wraps log/slog with functional options, per-environment
// defaults and context extractors.
//
// New builds a *slog.Logger whose handler is wrapped by NewContextHandler:
// registered ContextExtractor callbacks run for every record and add
// attributes pulled from the context (request IDs, the bootstrap anonymous
// identifier). Keys the call site sets itself are never overwritten.
//
// Attribute helpers in attr.go keep key names consistent across packages:
//
//	log.WarnContext(ctx, "dropping frame",
//	    logger.Identifier(id),
//	    logger.Generation(gen),
//	    logger.Error(err),
//	)
//
// NewFromConfig reads APP_ENV, APP_NAME and LOG_LEVEL through Config.
package logger
