package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvableBrand means no plausible official site was found
	// for a brand-name input. It fails only that target within a batch.
	ErrUnresolvableBrand = errors.New("no plausible official site found for brand")

	// ErrAmbiguousMerge means more than one price entry tied for the
	// best similarity score. The record is emitted unmerged.
	ErrAmbiguousMerge = errors.New("ambiguous price merge: multiple entries tied above threshold")

	// ErrJobCancelled and ErrJobTimedOut halt traversal but preserve
	// records that were already produced.
	ErrJobCancelled = errors.New("job cancelled")
	ErrJobTimedOut  = errors.New("job timed out")
)

// FetchErrorKind discriminates fetch failures for retry decisions.
type FetchErrorKind string

const (
	FetchTimeout   FetchErrorKind = "timeout"
	FetchHTTPError FetchErrorKind = "http-error"
	FetchBlocked   FetchErrorKind = "blocked"
)

// FetchError reports a failed page acquisition.
type FetchError struct {
	Kind   FetchErrorKind
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: %s (status %d)", e.URL, e.Kind, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Transient reports whether the failure is worth retrying. Timeouts and
// 5xx responses are transient; 404s and block signals are permanent.
func (e *FetchError) Transient() bool {
	switch e.Kind {
	case FetchTimeout:
		return true
	case FetchHTTPError:
		return e.Status >= 500
	default:
		return false
	}
}

// ExtractionError reports a product page from which no usable record
// could be derived.
type ExtractionError struct {
	URL          string
	MissingField string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: missing required field %q", e.URL, e.MissingField)
}
