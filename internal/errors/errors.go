package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a termcaps error code.
type ErrorCode string

const (
	ErrDuplicateCompactName ErrorCode = "DUPLICATE_COMPACT_NAME" // schema
	ErrMissingField         ErrorCode = "MISSING_FIELD"          // schema
	ErrInvalidVariant       ErrorCode = "INVALID_VARIANT"        // schema
	ErrInvalidValue         ErrorCode = "INVALID_VALUE"          // schema
	ErrUnknownField         ErrorCode = "UNKNOWN_FIELD"          // schema
	ErrParse                ErrorCode = "PARSE_ERROR"            // schema
	ErrUnsupported          ErrorCode = "UNSUPPORTED"            // resolver
	ErrInvalidRequest       ErrorCode = "INVALID_REQUEST"        // CLI / MCP input
	ErrNotFound             ErrorCode = "NOT_FOUND"              // snapshot lookups
	ErrInternal             ErrorCode = "INTERNAL"
)

// schemaCodes are the codes produced while loading a dataset.
var schemaCodes = map[ErrorCode]bool{
	ErrDuplicateCompactName: true,
	ErrMissingField:         true,
	ErrInvalidVariant:       true,
	ErrInvalidValue:         true,
	ErrUnknownField:         true,
	ErrParse:                true,
}

// CapError represents a structured error with code, message, and details.
type CapError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *CapError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsSchema reports whether the error came from dataset validation.
func (e *CapError) IsSchema() bool {
	return schemaCodes[e.Code]
}

// location renders "record N, field a.b" for schema errors.
func location(record int, path string) string {
	if path == "" {
		return fmt.Sprintf("record %d", record)
	}
	return fmt.Sprintf("record %d, field %s", record, path)
}

// NewDuplicateCompactName creates an error for two records sharing a compact name.
// records holds the indices of every record using the name, in dataset order.
func NewDuplicateCompactName(name string, records []int) *CapError {
	return &CapError{
		Code:    ErrDuplicateCompactName,
		Message: fmt.Sprintf("duplicated terminal name %q (records %s)", name, joinInts(records)),
		Details: map[string]any{"name": name, "records": records},
	}
}

// NewMissingField creates an error for a required field absent from a record.
func NewMissingField(record int, path string) *CapError {
	return &CapError{
		Code:    ErrMissingField,
		Message: fmt.Sprintf("%s: missing required field", location(record, path)),
		Details: map[string]any{"record": record, "field": path},
	}
}

// NewInvalidVariant creates an error for a variant field with an unrecognized shape.
func NewInvalidVariant(record int, path, got, want string) *CapError {
	return &CapError{
		Code:    ErrInvalidVariant,
		Message: fmt.Sprintf("%s: invalid variant %s (expected %s)", location(record, path), got, want),
		Details: map[string]any{"record": record, "field": path, "got": got},
	}
}

// NewInvalidValue creates an error for a field holding a value of the wrong shape.
func NewInvalidValue(record int, path, msg string) *CapError {
	return &CapError{
		Code:    ErrInvalidValue,
		Message: fmt.Sprintf("%s: %s", location(record, path), msg),
		Details: map[string]any{"record": record, "field": path},
	}
}

// NewUnknownField creates an error for a field the schema does not define.
func NewUnknownField(record int, path string) *CapError {
	return &CapError{
		Code:    ErrUnknownField,
		Message: fmt.Sprintf("%s: unknown field", location(record, path)),
		Details: map[string]any{"record": record, "field": path},
	}
}

// NewParse creates an error for input that is not a well-formed dataset.
func NewParse(err error) *CapError {
	msg := "malformed dataset"
	if err != nil {
		msg = err.Error()
	}
	return &CapError{
		Code:    ErrParse,
		Message: msg,
	}
}

// NewUnsupported creates an error for a command the terminal cannot perform.
// capability is the field path of the missing gate (e.g. "style.unset-color").
func NewUnsupported(command, capability string) *CapError {
	return &CapError{
		Code:    ErrUnsupported,
		Message: fmt.Sprintf("%s requires %s", command, capability),
		Details: map[string]any{"command": command, "capability": capability},
	}
}

// NewInvalidRequest creates an error for invalid request parameters.
func NewInvalidRequest(msg string) *CapError {
	return &CapError{
		Code:    ErrInvalidRequest,
		Message: msg,
	}
}

// NewNotFound creates an error for a missing snapshot or terminal.
func NewNotFound(identifier string) *CapError {
	return &CapError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewInternal creates an error for unexpected internal failures.
func NewInternal(err error) *CapError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &CapError{
		Code:    ErrInternal,
		Message: msg,
	}
}

// List is a set of errors reported together, e.g. every schema error in a dataset.
type List []*CapError

// Error implements the error interface.
func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors:", len(l))
	for _, e := range l {
		b.WriteString("\n  ")
		b.WriteString(e.Error())
	}
	return b.String()
}

// Is checks if an error is a CapError with the given code.
// For a List, it reports whether any member has the code.
func Is(err error, code ErrorCode) bool {
	switch e := err.(type) {
	case *CapError:
		return e.Code == code
	case List:
		for _, item := range e {
			if item.Code == code {
				return true
			}
		}
	}
	return false
}

// Flatten returns the CapErrors carried by err, wrapping anything else as internal.
func Flatten(err error) []*CapError {
	switch e := err.(type) {
	case nil:
		return nil
	case *CapError:
		return []*CapError{e}
	case List:
		return e
	default:
		return []*CapError{NewInternal(err)}
	}
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ", ")
}
