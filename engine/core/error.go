package core

import (
	"errors"
	"maps"
)

// Error is the canonical failure shape surfaced by task implementations.
type Error struct {
	Message string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	err     error
}

func NewError(err error, code string, details map[string]any) *Error {
	if err == nil {
		err = errors.New(code)
	}
	return &Error{
		Message: err.Error(),
		Code:    code,
		Details: details,
		err:     err,
	}
}

func (e *Error) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

// AsMap renders the error as a JSON-friendly map.
func (e *Error) AsMap() map[string]any {
	if e == nil {
		return nil
	}
	out := map[string]any{"message": e.Message}
	if e.Code != "" {
		out["code"] = e.Code
	}
	if len(e.Details) > 0 {
		out["details"] = maps.Clone(e.Details)
	}
	return out
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var coreErr *Error
	if errors.As(err, &coreErr) {
		return coreErr, true
	}
	return nil, false
}
