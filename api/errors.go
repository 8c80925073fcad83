package api

import (
	"errors"
	"fmt"
)

// FailureKind classifies export pipeline failures.
type FailureKind string

const (
	// FailureNoContent: the scene has no drawable primitives at all.
	FailureNoContent FailureKind = "no-content"
	// FailureDecode: the baked scene could not be rasterized.
	FailureDecode FailureKind = "decode"
	// FailureEncode: format-specific serialization/compression failed.
	FailureEncode FailureKind = "encode"
	// FailureSink: the download/clipboard/save operation was rejected.
	FailureSink FailureKind = "sink"
	// FailureCapability: an optional external capability is missing. This is
	// recovered locally and never surfaced to callers as an error.
	FailureCapability FailureKind = "capability"
)

// ExportError is the typed failure carried through the pipeline. Stage names
// the pipeline stage that failed; Format is set when the failure is specific
// to an attempted output kind.
type ExportError struct {
	Kind   FailureKind
	Stage  string
	Format Format
	Err    error
}

func (e *ExportError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Stage, e.Format, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// NewExportError creates a typed pipeline failure.
func NewExportError(kind FailureKind, stage string, format Format, err error) error {
	return &ExportError{Kind: kind, Stage: stage, Format: format, Err: err}
}

// IsFailure reports whether err is an ExportError of the given kind.
func IsFailure(err error, kind FailureKind) bool {
	var ee *ExportError
	if errors.As(err, &ee) {
		return ee.Kind == kind
	}
	return false
}
