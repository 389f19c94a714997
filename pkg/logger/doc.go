// Package logger builds slog loggers for SDK consumers and the bundled CLI.
// It is a thin factory over log/slog: pick a format (text for terminals,
// JSON for log aggregation), a level, and optional static attributes such as
// the component name.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithFormat(logger.FormatText),
//	    logger.WithLevel(slog.LevelDebug),
//	    logger.WithComponent("tokenmgr"),
//	)
//
//	mgr, err := tokenmgr.New(
//	    tokenmgr.WithBaseURL(url),
//	    tokenmgr.WithLogger(log),
//	)
//
// NewFromEnv reads MEFEED_LOG_LEVEL and MEFEED_LOG_FORMAT so twelve-factor
// consumers can tune verbosity without code changes.
package logger
