package task

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oetzilabs/wfa/engine/core"
	"github.com/oetzilabs/wfa/engine/schema"
)

// Kind discriminates the outcome of a runner invocation.
type Kind string

const (
	KindSuccess        Kind = "success"
	KindInputError     Kind = "error:input"
	KindExecutionError Kind = "error:execution"
	KindOutputError    Kind = "error:output"
)

func (k Kind) String() string {
	return string(k)
}

func (k Kind) IsError() bool {
	return k != KindSuccess
}

// Result is the outcome of one runner invocation. Exactly one kind is set:
// Data is meaningful for success, Issues for input and output errors and
// Err for execution errors. Task names the task that produced the outcome.
type Result[O any] struct {
	Task   string
	Kind   Kind
	Data   O
	Issues []schema.Issue
	Err    error
}

func (r Result[O]) Success() bool {
	return r.Kind == KindSuccess
}

// Failure returns the result as an error, or nil on success.
func (r Result[O]) Failure() error {
	if r.Success() {
		return nil
	}
	return &Failure{Task: r.Task, Kind: r.Kind, Issues: r.Issues, Err: r.Err}
}

// Erase drops the static payload type.
func (r Result[O]) Erase() Result[any] {
	out := Result[any]{Task: r.Task, Kind: r.Kind, Issues: r.Issues, Err: r.Err}
	if r.Success() {
		out.Data = r.Data
	}
	return out
}

type resultJSON struct {
	Task  string          `json:"task,omitempty"`
	Kind  Kind            `json:"kind"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error any             `json:"error,omitempty"`
}

func (r Result[O]) MarshalJSON() ([]byte, error) {
	out := resultJSON{Task: r.Task, Kind: r.Kind}
	switch r.Kind {
	case KindSuccess:
		data, err := schema.EncodeOrdered(r.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode result data: %w", err)
		}
		out.Data = data
	case KindInputError, KindOutputError:
		out.Error = r.Issues
	case KindExecutionError:
		out.Error = errorPayload(r.Err)
	}
	return json.Marshal(out)
}

func errorPayload(err error) map[string]any {
	if err == nil {
		return map[string]any{"message": "unknown error"}
	}
	if coreErr, ok := core.AsError(err); ok {
		return coreErr.AsMap()
	}
	return map[string]any{"message": err.Error()}
}

// Failure is the error form of a non-success Result.
type Failure struct {
	Task   string
	Kind   Kind
	Issues []schema.Issue
	Err    error
}

func (f *Failure) Error() string {
	var detail string
	if f.Err != nil {
		detail = f.Err.Error()
	} else {
		parts := make([]string, 0, len(f.Issues))
		for _, issue := range f.Issues {
			parts = append(parts, issue.String())
		}
		detail = strings.Join(parts, "; ")
	}
	return fmt.Sprintf("task %s failed (%s): %s", f.Task, f.Kind, detail)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func succeeded[O any](task string, data O) Result[O] {
	return Result[O]{Task: task, Kind: KindSuccess, Data: data}
}

func inputFailed[O any](task string, issues []schema.Issue) Result[O] {
	return Result[O]{Task: task, Kind: KindInputError, Issues: issues}
}

func executionFailed[O any](task string, err error) Result[O] {
	return Result[O]{Task: task, Kind: KindExecutionError, Err: err}
}

func outputFailed[O any](task string, issues []schema.Issue) Result[O] {
	return Result[O]{Task: task, Kind: KindOutputError, Issues: issues}
}

// narrow restores the payload type of an erased result. Failures are carried
// over unchanged.
func narrow[O any](r Result[any]) Result[O] {
	if !r.Success() {
		return Result[O]{Task: r.Task, Kind: r.Kind, Issues: r.Issues, Err: r.Err}
	}
	if r.Data == nil {
		var zero O
		return succeeded(r.Task, zero)
	}
	data, ok := r.Data.(O)
	if !ok {
		var zero O
		return executionFailed[O](r.Task, fmt.Errorf("%w: expected %T, got %T", ErrIncompatibleStages, zero, r.Data))
	}
	return succeeded(r.Task, data)
}
