package dirpack

// ProgressEvent is emitted after each archive entry is fully written.
// EntriesWritten and BytesWritten increase monotonically over one run.
type ProgressEvent struct {
	// EntriesWritten counts entries written so far, including this one.
	EntriesWritten uint64
	// BytesWritten counts content bytes written so far.
	BytesWritten uint64
	// Path is the root-relative path of the entry just written.
	Path string
}

// ProgressFunc receives progress updates during archive creation. It is
// called from the archiving goroutine; it must not block for long and must
// not call back into the writer.
type ProgressFunc func(ProgressEvent)
