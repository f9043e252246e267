package calibration

import "errors"

// Kinds of calibration failure. A *CalibrationError wraps exactly one of them,
// so callers can test with errors.Is.
var (
	ErrMissingRole       = errors.New("missing marker role")
	ErrDuplicateRole     = errors.New("duplicate marker role")
	ErrDegenerateMarkers = errors.New("markers too close together")
	ErrRatioOutOfRange   = errors.New("pixel-to-mm ratio out of range")
	ErrSingularTransform = errors.New("coordinate transform is not invertible")
)

// CalibrationError reports why no coordinate system could be derived.
type CalibrationError struct {
	Kind   error
	Detail string
}

func (e *CalibrationError) Error() string {
	if e.Detail == "" {
		return "calibration failed: " + e.Kind.Error()
	}
	return "calibration failed: " + e.Kind.Error() + ": " + e.Detail
}

func (e *CalibrationError) Unwrap() error {
	return e.Kind
}
