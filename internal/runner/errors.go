package runner

import "fmt"

// ExtractError wraps a failure while fetching rows from the source.
// Fatal for the run; the watermark is left untouched so a rerun re-selects
// the same window.
type ExtractError struct {
	Table string
	Err   error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract failed for %s: %v", e.Table, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// LoadError wraps a failure while writing to the data lake.
// Fatal for the run; loads append into run-scoped objects, so a rerun is safe.
type LoadError struct {
	Table string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load failed for %s: %v", e.Table, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// WatermarkWriteError wraps a failure persisting the advanced watermark.
// The run must surface as FAILED even though extract/transform/load
// succeeded: skipping the advance is safer than silently losing the
// "processed" marker, and the rerun only produces duplicates.
type WatermarkWriteError struct {
	Table string
	Err   error
}

func (e *WatermarkWriteError) Error() string {
	return fmt.Sprintf("watermark write failed for %s: %v", e.Table, e.Err)
}

func (e *WatermarkWriteError) Unwrap() error { return e.Err }
