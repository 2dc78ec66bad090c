package resolve

import "errors"

// Every error below is fatal to a run. Callers match with errors.Is; the
// wrapped message carries the detail.
var (
	ErrResolution           = errors.New("resolution failed")
	ErrDimensionNotFound    = errors.New("dimension not found")
	ErrMissingOption        = errors.New("missing option")
	ErrNoAggregateAvailable = errors.New("no aggregate available")
	ErrNoObservation        = errors.New("no observation value")
)
