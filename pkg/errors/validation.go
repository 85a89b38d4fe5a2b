package errors

import (
	"math"
	"regexp"
)

// MaxRunCount bounds a single simulation request. Larger studies should be
// split into several seed windows.
const MaxRunCount = 1_000_000

// identifierRegex matches generator, node and constraint identifiers as the
// editor produces them: letters, digits, '_', '-', '.' and ':'.
var identifierRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.:-]*$`)

// ValidateIdentifier validates a generator, node or constraint identifier.
// The kind is only used to phrase the error message.
func ValidateIdentifier(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "%s id cannot be empty", kind)
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "%s id too long (max 128 characters)", kind)
	}
	if !identifierRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "%s id %q contains invalid characters", kind, id)
	}
	return nil
}

// ValidateRunCount validates the number of runs requested for a simulation.
func ValidateRunCount(n int) error {
	if n <= 0 {
		return New(ErrCodeInvalidInput, "runCount must be positive, got %d", n)
	}
	if n > MaxRunCount {
		return New(ErrCodeInvalidInput, "runCount too large (max %d)", MaxRunCount)
	}
	return nil
}

// ValidateSeedWindow checks that seedStart..seedStart+runCount-1 does not
// wrap around the uint64 seed space.
func ValidateSeedWindow(seedStart uint64, runCount int) error {
	if err := ValidateRunCount(runCount); err != nil {
		return err
	}
	if seedStart > math.MaxUint64-uint64(runCount-1) {
		return New(ErrCodeInvalidInput, "seed window starting at %d overflows", seedStart)
	}
	return nil
}
