package faults

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	ErrIngestion       = errors.New("ingestion failure")
	ErrTransform       = errors.New("transform failure")
	ErrModel           = errors.New("model failure")
	ErrArtifactMissing = errors.New("artifact missing")
	ErrInvalidInput    = errors.New("invalid input")
)

var kindNames = []struct {
	marker error
	name   string
}{
	{ErrIngestion, "ingestion"},
	{ErrTransform, "transform"},
	{ErrModel, "model"},
	{ErrArtifactMissing, "artifact_missing"},
	{ErrInvalidInput, "invalid_input"},
}

// Error carries the kind marker, stage context and originating location of a
// failure.
type Error struct {
	Kind      error
	Stage     string
	Operation string
	Message   string
	Location  string
	Cause     error
}

func (e *Error) Error() string {
	detail := buildDetail(e.Stage, e.Operation, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, detail, e.Cause)
	}
	return fmt.Sprintf("%v: %s", e.Kind, detail)
}

// Unwrap exposes both the kind marker and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// Wrap builds an error that includes stage context while tagging it with the
// provided marker for later classification. The marker should be one of the
// exported sentinel errors above; nil falls back to ErrModel.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrModel
	}
	return &Error{
		Kind:      marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Location:  callerLocation(2),
		Cause:     err,
	}
}

// Details returns the outermost structured fault in err's chain.
func Details(err error) (*Error, bool) {
	var fault *Error
	if errors.As(err, &fault) {
		return fault, true
	}
	return nil, false
}

// KindName returns a short label for the kind of err, or "unknown".
func KindName(err error) string {
	if err == nil {
		return ""
	}
	for _, entry := range kindNames {
		if errors.Is(err, entry.marker) {
			return entry.name
		}
	}
	return "unknown"
}

func callerLocation(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage != "" {
		parts = append(parts, stage)
	}
	if operation != "" {
		parts = append(parts, operation)
	}
	if message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "failure"
	}
	return strings.Join(parts, ": ")
}
