// Package common holds configuration constants and ambient infrastructure
// (latching, logging, debug tracing) shared across the storage engine.
package common

import "time"

const (
	// PageSize is the fixed size, in bytes, of every page frame and every
	// on-disk page slot.
	PageSize = 4096

	// LogBufferSizeBase is expressed in page-equivalents, mirroring the
	// teacher's lib/common/config.go sizing of the double log buffer.
	LogBufferSizeBase = 128
	// LogBufferSize is the byte size of each of the log manager's two
	// buffers (log_buffer and flush_buffer).
	LogBufferSize = (LogBufferSizeBase + 1) * PageSize

	// BucketSizeOfHashIndex is the default number of slots a freshly
	// constructed hash index starts with.
	BucketSizeOfHashIndex = 10

	// LogFlushTimeout bounds how long the background flusher waits between
	// forced flushes when nobody calls ForceFlush explicitly.
	LogFlushTimeout = 1 * time.Second
)
