package model

// ContextStatus is the outcome of a single context-collection attempt.
type ContextStatus string

const (
	// StatusFound means the signal was collected and carries content.
	StatusFound ContextStatus = "found"
	// StatusEmpty means collection succeeded but the signal has no data
	// (e.g. the user has no linked channel).
	StatusEmpty ContextStatus = "empty"
	// StatusFailed means a collection attempt was made and hit an API or
	// transport error.
	StatusFailed ContextStatus = "failed"
	// StatusSkipped means collection was never attempted because a hard
	// prerequisite was missing.
	StatusSkipped ContextStatus = "skipped"
)

// ContextResult is the tagged outcome of one collector. Content is set only
// for StatusFound; Err is set only for StatusFailed and StatusSkipped.
// Results are immutable after construction — use the constructors below.
type ContextResult struct {
	Status  ContextStatus `json:"status"`
	Content string        `json:"content,omitempty"`
	Err     string        `json:"error,omitempty"`
}

// Found returns a FOUND result carrying content.
func Found(content string) ContextResult {
	return ContextResult{Status: StatusFound, Content: content}
}

// Empty returns an EMPTY result: the check ran and found nothing.
func Empty() ContextResult {
	return ContextResult{Status: StatusEmpty}
}

// Failed returns a FAILED result recording why the attempt errored.
func Failed(reason string) ContextResult {
	return ContextResult{Status: StatusFailed, Err: reason}
}

// Skipped returns a SKIPPED result recording the missing prerequisite.
func Skipped(reason string) ContextResult {
	return ContextResult{Status: StatusSkipped, Err: reason}
}

// emptyMarker is the reserved string that encodes StatusEmpty in storage.
// It distinguishes "checked, nothing found" from NULL (never checked).
const emptyMarker = "[EMPTY]"

// EncodeContext serializes a ContextResult for persistence as part of a
// labeled example. The encoding is three-way: nil for SKIPPED, FAILED and
// unknown-historical rows; the reserved empty marker for EMPTY; the literal
// content for FOUND.
func EncodeContext(r ContextResult) *string {
	switch r.Status {
	case StatusFound:
		c := r.Content
		return &c
	case StatusEmpty:
		m := emptyMarker
		return &m
	default:
		return nil
	}
}

// DecodeContext reconstructs a ContextResult from its stored form.
// NULL decodes to SKIPPED since historical rows do not record whether the
// signal was ever attempted.
func DecodeContext(s *string) ContextResult {
	switch {
	case s == nil:
		return Skipped("not recorded")
	case *s == emptyMarker:
		return Empty()
	default:
		return Found(*s)
	}
}
