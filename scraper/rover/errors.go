package rover

import "fmt"

// Extraction failure reasons.
const (
	ReasonUnreadableMarkup = "unreadable markup"
	ReasonMarkerNotFound   = "marker not found"
	ReasonNoAssignment     = "no assignment after marker"
	ReasonInvalidJSON      = "invalid JSON"
	ReasonUnexpectedShape  = "unexpected shape"
)

// FetchError reports that a search page could not be loaded. It ends the run.
type FetchError struct {
	Page int
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("rover: fetch page %d (%s): %v", e.Page, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError reports that a page did not carry the embedded data in the
// expected form, which usually means the site's markup changed. Offset is the
// byte position of a JSON syntax error in the repaired payload, or -1.
type ExtractionError struct {
	Reason string
	Offset int64
	Err    error
}

func (e *ExtractionError) Error() string {
	msg := "rover: extract: " + e.Reason
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" at offset %d", e.Offset)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func extractionErr(reason string, err error) *ExtractionError {
	return &ExtractionError{Reason: reason, Offset: -1, Err: err}
}
