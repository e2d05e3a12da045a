package model

// Status is the final state of a single download.
type Status int

const (
	// StatusSuccess means the remote bytes were written in full.
	StatusSuccess Status = iota

	// StatusFailed means every permitted attempt failed or the error was permanent.
	StatusFailed

	// StatusAborted means the run was cancelled while the item was in flight.
	// The item is neither done nor failed and is fetched again by the next run.
	StatusAborted
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Outcome is produced exactly once per dispatched item.
type Outcome struct {
	// Item is the descriptor that was fetched.
	Item MediaItem

	// Status is the final state after retries.
	Status Status

	// Err holds the last error when Status is StatusFailed or StatusAborted.
	Err error

	// Attempts is the number of HTTP attempts actually made.
	Attempts int

	// Path is the local destination file.
	Path string

	// Bytes is the size written by the successful attempt.
	Bytes int64
}

// Succeeded reports whether the outcome is a success.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusSuccess
}

// Aborted reports whether the item was interrupted by a cancelled run.
func (o Outcome) Aborted() bool {
	return o.Status == StatusAborted
}

// Reason returns the failure reason, or an empty string on success.
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
