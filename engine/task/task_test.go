package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oetzilabs/wfa/engine/schema"
)

func TestNew(t *testing.T) {
	fn := func(_ context.Context, _ greetInput) (greetOutput, error) { return greetOutput{}, nil }

	t.Run("Should reject an empty name", func(t *testing.T) {
		_, err := New(Spec[greetInput, greetOutput]{
			Name:         "  ",
			InputSchema:  greetInputSchema(),
			OutputSchema: greetOutputSchema(),
			Fn:           fn,
		})

		assert.ErrorIs(t, err, ErrInvalidSpec)
	})

	t.Run("Should reject a missing implementation", func(t *testing.T) {
		_, err := New(Spec[greetInput, greetOutput]{
			Name:         "greet",
			InputSchema:  greetInputSchema(),
			OutputSchema: greetOutputSchema(),
		})

		assert.ErrorIs(t, err, ErrInvalidSpec)
	})

	t.Run("Should reject missing schemas", func(t *testing.T) {
		_, err := New(Spec[greetInput, greetOutput]{Name: "greet", OutputSchema: greetOutputSchema(), Fn: fn})
		assert.ErrorIs(t, err, ErrInvalidSpec)

		_, err = New(Spec[greetInput, greetOutput]{Name: "greet", InputSchema: greetInputSchema(), Fn: fn})
		assert.ErrorIs(t, err, ErrInvalidSpec)
	})

	t.Run("Should reject schemas that do not compile", func(t *testing.T) {
		_, err := New(Spec[greetInput, greetOutput]{
			Name:         "greet",
			InputSchema:  &schema.Schema{"properties": "nope"},
			OutputSchema: greetOutputSchema(),
			Fn:           fn,
		})

		assert.ErrorIs(t, err, ErrInvalidSchema)
	})

	t.Run("Should default the error schema to the permissive schema", func(t *testing.T) {
		task := newGreetTask(nil, nil)

		desc := task.Descriptor()

		assert.Equal(t, "greet", desc.Name)
		assert.Equal(t, schema.Any(), desc.OutputSchemas.Error)
	})
}

func TestTask_Descriptor(t *testing.T) {
	t.Run("Should not expose mutable schemas", func(t *testing.T) {
		task := newGreetTask(nil, nil)

		desc := task.Descriptor()
		(*desc.InputSchema)["type"] = "string"
		delete(*desc.OutputSchemas.Success, "required")

		again := task.Descriptor()
		assert.Equal(t, "object", (*again.InputSchema)["type"])
		assert.Contains(t, *again.OutputSchemas.Success, "required")
	})

	t.Run("Should not be affected by later changes to the schema passed to New", func(t *testing.T) {
		in := greetInputSchema()
		task, err := New(Spec[greetInput, greetOutput]{
			Name:         "greet",
			InputSchema:  in,
			OutputSchema: greetOutputSchema(),
			Fn: func(_ context.Context, in greetInput) (greetOutput, error) {
				return greetOutput{Hello: in.Name}, nil
			},
		})
		require.NoError(t, err)

		(*in)["required"] = []string{"name", "missing"}

		result := task.Run(t.Context(), map[string]any{"name": "Ada"})
		assert.Equal(t, KindSuccess, result.Kind)
	})

	t.Run("Should render a blueprint", func(t *testing.T) {
		bp := newGreetTask(nil, nil).Descriptor().Blueprint()

		assert.Equal(t, "greet", bp["name"])
		assert.Equal(t, map[string]any{
			"name":     "string",
			"greeting": map[string]any{"optional": "string"},
		}, bp["input"])
		assert.Equal(t, map[string]any{"success": map[string]any{"hello": "string"}, "error": "any"}, bp["output"])
	})
}

func TestTask_Run(t *testing.T) {
	t.Run("Should return success with normalized data", func(t *testing.T) {
		calls := &counter{}
		task := newGreetTask(calls, nil)

		result := task.Run(t.Context(), map[string]any{"name": "John"})

		require.Equal(t, KindSuccess, result.Kind, "issues=%v err=%v", result.Issues, result.Err)
		assert.Equal(t, "greet", result.Task)
		assert.Equal(t, greetOutput{Hello: "hello John"}, result.Data)
		assert.Nil(t, result.Issues)
		assert.NoError(t, result.Err)
		assert.Equal(t, 1, calls.count())
	})

	t.Run("Should gate malformed input before the implementation runs", func(t *testing.T) {
		inputs := map[string]any{
			"missing field": map[string]any{},
			"wrong type":    map[string]any{"name": 42},
			"empty name":    map[string]any{"name": ""},
			"not an object": "John",
			"absent":        nil,
		}
		for label, input := range inputs {
			t.Run(label, func(t *testing.T) {
				calls := &counter{}
				task := newGreetTask(calls, nil)

				result := task.Run(t.Context(), input)

				assert.Equal(t, KindInputError, result.Kind)
				assert.NotEmpty(t, result.Issues)
				assert.Equal(t, 0, calls.count())
			})
		}
	})

	t.Run("Should pass implementation errors through without output validation", func(t *testing.T) {
		boom := errors.New("external API unreachable")
		validator := &countingValidator{inner: schema.DefaultValidator()}
		task := newGreetTask(nil, func(context.Context, greetInput) (greetOutput, error) {
			return greetOutput{}, boom
		}, WithValidator(validator))

		result := task.Run(t.Context(), map[string]any{"name": "John"})

		assert.Equal(t, KindExecutionError, result.Kind)
		assert.ErrorIs(t, result.Err, boom)
		assert.Equal(t, int64(1), validator.calls.Load())
	})

	t.Run("Should recover panics as execution errors", func(t *testing.T) {
		task := newGreetTask(nil, func(context.Context, greetInput) (greetOutput, error) {
			panic("nil map write")
		})

		result := task.Run(t.Context(), map[string]any{"name": "John"})

		assert.Equal(t, KindExecutionError, result.Kind)
		assert.ErrorIs(t, result.Err, ErrPanic)
		assert.ErrorContains(t, result.Err, "nil map write")
	})

	t.Run("Should gate output that violates the success schema", func(t *testing.T) {
		calls := &counter{}
		task := newGreetTask(calls, func(context.Context, greetInput) (greetOutput, error) {
			return greetOutput{Hello: ""}, nil
		})

		result := task.Run(t.Context(), map[string]any{"name": "John"})

		assert.Equal(t, KindOutputError, result.Kind)
		assert.NotEmpty(t, result.Issues)
		assert.Equal(t, 1, calls.count())
	})

	t.Run("Should fail absent output with an output error", func(t *testing.T) {
		task, err := New(Spec[greetInput, *greetOutput]{
			Name:         "nil_output",
			InputSchema:  greetInputSchema(),
			OutputSchema: greetOutputSchema(),
			Fn: func(context.Context, greetInput) (*greetOutput, error) {
				return nil, nil
			},
		})
		require.NoError(t, err)

		result := task.Run(t.Context(), map[string]any{"name": "John"})

		assert.Equal(t, KindOutputError, result.Kind)
	})

	t.Run("Should not run the implementation on a cancelled context", func(t *testing.T) {
		calls := &counter{}
		task := newGreetTask(calls, nil)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		result := task.Run(ctx, map[string]any{"name": "John"})

		assert.Equal(t, KindExecutionError, result.Kind)
		assert.ErrorIs(t, result.Err, context.Canceled)
		assert.Equal(t, 0, calls.count())
	})

	t.Run("Should surface deadline errors from the implementation", func(t *testing.T) {
		task := newGreetTask(nil, func(ctx context.Context, _ greetInput) (greetOutput, error) {
			<-ctx.Done()
			return greetOutput{}, ctx.Err()
		})
		ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
		defer cancel()

		result := task.Run(ctx, map[string]any{"name": "John"})

		assert.Equal(t, KindExecutionError, result.Kind)
		assert.ErrorIs(t, result.Err, context.DeadlineExceeded)
	})

	t.Run("Should yield the same result for the same input", func(t *testing.T) {
		task := newGreetTask(nil, nil)

		for _, input := range []any{map[string]any{"name": "John"}, map[string]any{"name": 1}} {
			assert.Equal(t, task.Run(t.Context(), input), task.Run(t.Context(), input))
		}
	})

	t.Run("Should use an injected validator", func(t *testing.T) {
		rejectAll := schema.ValidatorFunc(func(context.Context, *schema.Schema, any) schema.Verdict {
			return schema.Verdict{Issues: []schema.Issue{{Path: "name", Message: "rejected"}}}
		})
		calls := &counter{}
		task := newGreetTask(calls, nil, WithValidator(rejectAll))

		result := task.Run(t.Context(), map[string]any{"name": "John"})

		assert.Equal(t, KindInputError, result.Kind)
		assert.Equal(t, []schema.Issue{{Path: "name", Message: "rejected"}}, result.Issues)
		assert.Equal(t, 0, calls.count())
	})

	t.Run("Should be safe for concurrent reuse", func(t *testing.T) {
		task := newGreetTask(nil, nil)
		names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
		results := make([]Result[greetOutput], len(names))
		var wg sync.WaitGroup
		for i, name := range names {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = task.Run(t.Context(), map[string]any{"name": name})
			}()
		}
		wg.Wait()

		for i, name := range names {
			assert.Equal(t, "hello "+name, results[i].Data.Hello)
		}
	})
}

func TestTask_Call(t *testing.T) {
	t.Run("Should validate typed input too", func(t *testing.T) {
		calls := &counter{}
		task := newGreetTask(calls, nil)

		ok := task.Call(t.Context(), greetInput{Name: "Ada", Greeting: "hi"})
		bad := task.Call(t.Context(), greetInput{})

		assert.Equal(t, greetOutput{Hello: "hi Ada"}, ok.Data)
		assert.Equal(t, KindInputError, bad.Kind)
		assert.Equal(t, 1, calls.count())
	})

	t.Run("Should fill schema defaults for omitted typed fields", func(t *testing.T) {
		task := newGreetTask(nil, nil)

		result := task.Call(t.Context(), greetInput{Name: "Ada"})

		require.Equal(t, KindSuccess, result.Kind, "issues=%v err=%v", result.Issues, result.Err)
		assert.Equal(t, greetOutput{Hello: "hello Ada"}, result.Data)
	})
}
