// Package log builds the slog loggers used by docdrift.
//
// Site configurations may carry cookies and authorization headers for
// documentation behind a login. RedactingHandler masks those values before
// they reach the output, in verbose mode too, so logs can be attached to bug
// reports safely.
//
// Recorder is an in-memory slog.Handler. Tests hand a Recorder-backed logger
// to the crawl and diff engines and assert on the events they emit.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, log.Options{Verbose: true})
//	logger.Warn("page fetch failed",
//	    "url", "https://docs.example/guide",
//	    "cookie", "session=abc123", // written as ***REDACTED***
//	)
package log
