package builtin

import "github.com/oetzilabs/wfa/engine/core"

// Canonical error codes shared across builtin task implementations.
const (
	CodeInvalidArgument  = "InvalidArgument"
	CodeCurrencyNotFound = "CurrencyNotFound"
	CodeUnavailable      = "Unavailable"
	CodeMalformedCSV     = "MalformedCSV"
	CodeInternal         = "Internal"
)

func newError(code string, err error, details map[string]any) *core.Error {
	return core.NewError(err, code, details)
}

// InvalidArgument reports input that passed the schema but cannot be used.
func InvalidArgument(err error, details map[string]any) *core.Error {
	return newError(CodeInvalidArgument, err, details)
}

// CurrencyNotFound reports a currency missing from a rate table.
func CurrencyNotFound(err error, details map[string]any) *core.Error {
	return newError(CodeCurrencyNotFound, err, details)
}

// Unavailable reports an upstream service that could not be reached.
func Unavailable(err error, details map[string]any) *core.Error {
	return newError(CodeUnavailable, err, details)
}

func MalformedCSV(err error, details map[string]any) *core.Error {
	return newError(CodeMalformedCSV, err, details)
}

func Internal(err error, details map[string]any) *core.Error {
	return newError(CodeInternal, err, details)
}
