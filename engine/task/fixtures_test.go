package task

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/oetzilabs/wfa/engine/schema"
)

type greetInput struct {
	Name     string `json:"name"`
	Greeting string `json:"greeting,omitempty"`
}

type greetOutput struct {
	Hello string `json:"hello"`
}

type upperInput struct {
	Text string `json:"text"`
}

type upperOutput struct {
	Upper string `json:"upper"`
}

func greetInputSchema() *schema.Schema {
	return &schema.Schema{
		"type":     "object",
		"required": []string{"name"},
		"properties": map[string]any{
			"name":     map[string]any{"type": "string", "minLength": 1},
			"greeting": map[string]any{"type": "string", "default": "hello"},
		},
	}
}

func greetOutputSchema() *schema.Schema {
	return &schema.Schema{
		"type":     "object",
		"required": []string{"hello"},
		"properties": map[string]any{
			"hello": map[string]any{"type": "string", "minLength": 1},
		},
	}
}

func textSchema(field string) *schema.Schema {
	return &schema.Schema{
		"type":     "object",
		"required": []string{field},
		"properties": map[string]any{
			field: map[string]any{"type": "string"},
		},
	}
}

// counter counts implementation invocations.
type counter struct {
	calls atomic.Int64
}

func (c *counter) count() int {
	return int(c.calls.Load())
}

func newGreetTask(c *counter, fn Func[greetInput, greetOutput], opts ...Option) *Task[greetInput, greetOutput] {
	if fn == nil {
		fn = func(_ context.Context, in greetInput) (greetOutput, error) {
			return greetOutput{Hello: in.Greeting + " " + in.Name}, nil
		}
	}
	wrapped := func(ctx context.Context, in greetInput) (greetOutput, error) {
		if c != nil {
			c.calls.Add(1)
		}
		return fn(ctx, in)
	}
	t, err := New(Spec[greetInput, greetOutput]{
		Name:         "greet",
		InputSchema:  greetInputSchema(),
		OutputSchema: greetOutputSchema(),
		Fn:           wrapped,
	}, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

func newUpperTask(c *counter) *Task[upperInput, upperOutput] {
	t, err := New(Spec[upperInput, upperOutput]{
		Name:         "upper",
		InputSchema:  textSchema("text"),
		OutputSchema: textSchema("upper"),
		Fn: func(_ context.Context, in upperInput) (upperOutput, error) {
			if c != nil {
				c.calls.Add(1)
			}
			return upperOutput{Upper: strings.ToUpper(in.Text)}, nil
		},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// countingValidator records how often validation ran.
type countingValidator struct {
	inner schema.Validator
	calls atomic.Int64
}

func (v *countingValidator) Validate(ctx context.Context, s *schema.Schema, value any) schema.Verdict {
	v.calls.Add(1)
	return v.inner.Validate(ctx, s, value)
}
