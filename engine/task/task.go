package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oetzilabs/wfa/engine/schema"
	"github.com/oetzilabs/wfa/pkg/logger"
)

// Func is a task implementation. It receives the validated, normalized input.
type Func[I, O any] func(ctx context.Context, input I) (O, error)

// Spec declares a task: its schemas and implementation.
type Spec[I, O any] struct {
	Name         string
	Description  string
	InputSchema  *schema.Schema
	OutputSchema *schema.Schema
	// ErrorSchema describes execution failures; permissive when nil.
	ErrorSchema *schema.Schema
	Fn          Func[I, O]
}

type OutputSchemas struct {
	Success *schema.Schema `json:"success"`
	Error   *schema.Schema `json:"error"`
}

// Descriptor is the immutable, data-only view of a task.
type Descriptor struct {
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	InputSchema   *schema.Schema `json:"input_schema"`
	OutputSchemas OutputSchemas  `json:"output_schemas"`
}

func (d Descriptor) clone() Descriptor {
	return Descriptor{
		Name:        d.Name,
		Description: d.Description,
		InputSchema: d.InputSchema.Clone(),
		OutputSchemas: OutputSchemas{
			Success: d.OutputSchemas.Success.Clone(),
			Error:   d.OutputSchemas.Error.Clone(),
		},
	}
}

// Blueprint renders the descriptor's shapes for documentation.
func (d Descriptor) Blueprint() map[string]any {
	return map[string]any{
		"name":        d.Name,
		"description": d.Description,
		"input":       schema.Describe(d.InputSchema),
		"output": map[string]any{
			"success": schema.Describe(d.OutputSchemas.Success),
			"error":   schema.Describe(d.OutputSchemas.Error),
		},
	}
}

// Runner is anything that can be invoked like a task: leaf tasks and pipes.
type Runner[I, O any] interface {
	Descriptor() Descriptor
	// Run validates an arbitrary raw value against the input schema.
	Run(ctx context.Context, raw any) Result[O]
	// Call runs with an already typed input; it is still validated.
	Call(ctx context.Context, input I) Result[O]
}

type options struct {
	validator schema.Validator
	metrics   *Metrics
}

type Option func(*options)

func WithValidator(v schema.Validator) Option {
	return func(o *options) {
		if v != nil {
			o.validator = v
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// Task is a leaf runner built by New.
type Task[I, O any] struct {
	desc Descriptor
	fn   Func[I, O]
	opts options
}

var _ Runner[any, any] = (*Task[any, any])(nil)

// New validates spec and returns a runner bound to it.
func New[I, O any](spec Spec[I, O], opts ...Option) (*Task[I, O], error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidSpec)
	}
	if spec.Fn == nil {
		return nil, fmt.Errorf("%w: task %s has no implementation", ErrInvalidSpec, name)
	}
	if spec.InputSchema == nil {
		return nil, fmt.Errorf("%w: task %s has no input schema", ErrInvalidSpec, name)
	}
	if spec.OutputSchema == nil {
		return nil, fmt.Errorf("%w: task %s has no output schema", ErrInvalidSpec, name)
	}
	errorSchema := spec.ErrorSchema
	if errorSchema == nil {
		errorSchema = schema.Any()
	}
	for label, s := range map[string]*schema.Schema{
		"input":  spec.InputSchema,
		"output": spec.OutputSchema,
		"error":  errorSchema,
	} {
		if _, err := s.Compile(); err != nil {
			return nil, fmt.Errorf("%w: task %s %s schema: %w", ErrInvalidSchema, name, label, err)
		}
	}
	o := options{validator: schema.DefaultValidator()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Task[I, O]{
		desc: Descriptor{
			Name:        name,
			Description: spec.Description,
			InputSchema: spec.InputSchema.Clone(),
			OutputSchemas: OutputSchemas{
				Success: spec.OutputSchema.Clone(),
				Error:   errorSchema.Clone(),
			},
		},
		fn:   spec.Fn,
		opts: o,
	}, nil
}

func (t *Task[I, O]) Name() string {
	return t.desc.Name
}

func (t *Task[I, O]) Descriptor() Descriptor {
	return t.desc.clone()
}

func (t *Task[I, O]) Call(ctx context.Context, input I) Result[O] {
	return t.Run(ctx, input)
}

func (t *Task[I, O]) Run(ctx context.Context, raw any) Result[O] {
	start := time.Now()
	result := t.run(ctx, raw)
	elapsed := time.Since(start)
	t.opts.metrics.record(ctx, t.desc.Name, result.Kind, elapsed)
	logger.FromContext(ctx).Debug(
		"Task run finished",
		"task", t.desc.Name,
		"kind", result.Kind,
		"duration", elapsed,
	)
	return result
}

func (t *Task[I, O]) run(ctx context.Context, raw any) Result[O] {
	name := t.desc.Name
	in := t.opts.validator.Validate(ctx, t.desc.InputSchema, raw)
	if !in.Valid {
		return inputFailed[O](name, in.Issues)
	}
	input, err := schema.Decode[I](in.Value)
	if err != nil {
		return inputFailed[O](name, []schema.Issue{{Keyword: "decode", Message: err.Error()}})
	}
	if err := ctx.Err(); err != nil {
		return executionFailed[O](name, err)
	}
	output, err := invoke(ctx, t.fn, input)
	if err != nil {
		return executionFailed[O](name, err)
	}
	out := t.opts.validator.Validate(ctx, t.desc.OutputSchemas.Success, output)
	if !out.Valid {
		return outputFailed[O](name, out.Issues)
	}
	data, err := schema.Decode[O](out.Value)
	if err != nil {
		return outputFailed[O](name, []schema.Issue{{Keyword: "decode", Message: err.Error()}})
	}
	return succeeded(name, data)
}

func invoke[I, O any](ctx context.Context, fn Func[I, O], input I) (out O, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn(ctx, input)
}
