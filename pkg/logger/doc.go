// Package logger provides a context-aware slog factory with functional options
// and attribute helpers shared by the state machine and flow packages.
//
// New builds a *slog.Logger from Option values: output format (text or json),
// minimum level, static attributes and ContextExtractor callbacks that pull
// request-scoped values out of context.Context each time a record is handled.
// NewFromConfig does the same from a Config loaded from the environment
// (LOG_FORMAT, LOG_LEVEL, APP_ENV, SERVICE_NAME).
//
// Helper constructors such as FlowID, State, FromState, ToState, Event and Error
// keep attribute keys consistent across packages. Error and Errors return an
// empty attribute for nil errors, so no nil check is needed at call sites:
//
//	log.InfoContext(ctx, "transition", logger.FromState("new_user"), logger.Error(err))
//
// WithFlowID stores a flow identifier in a context; loggers built with
// WithFlowIDFromContext attach it to every record logged with that context.
package logger
