package common

import "go.uber.org/zap"

// Log is the package-level structured logger used by the file-backed disk
// manager, log recovery and the demo command. Production callers may
// replace it (e.g. with a file-backed config) before opening a store;
// tests leave it at the default development logger.
var Log = mustNewLogger()

func mustNewLogger() *zap.Logger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		// zap.NewDevelopment only fails on a broken encoder/sink config,
		// which cannot happen with the zero-value options used here.
		panic(err)
	}
	return logger
}
