package queue

import "errors"

var (
	// ErrNotProcessing indicates a finalize attempt against a submission that is
	// no longer in the processing state.
	ErrNotProcessing = errors.New("submission is not processing")

	// ErrMetricsPersist indicates the critical metrics payload could not be written.
	ErrMetricsPersist = errors.New("metrics upsert failed")

	// ErrEventsPersist indicates the measurement event rows could not be written.
	ErrEventsPersist = errors.New("events upsert failed")
)
