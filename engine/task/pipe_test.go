package task

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func helloToText(_ context.Context, out greetOutput) (upperInput, error) {
	return upperInput{Text: out.Hello}, nil
}

func upperToText(_ context.Context, out upperOutput) (upperInput, error) {
	return upperInput{Text: out.Upper}, nil
}

func newExclaimTask(c *counter) *Task[upperInput, upperOutput] {
	t, err := New(Spec[upperInput, upperOutput]{
		Name:         "exclaim",
		InputSchema:  textSchema("text"),
		OutputSchema: textSchema("upper"),
		Fn: func(_ context.Context, in upperInput) (upperOutput, error) {
			if c != nil {
				c.calls.Add(1)
			}
			return upperOutput{Upper: in.Text + "!"}, nil
		},
	})
	if err != nil {
		panic(err)
	}
	return t
}

func TestPipe(t *testing.T) {
	t.Run("Should run both stages and return the downstream success", func(t *testing.T) {
		pipe, err := Pipe(newGreetTask(nil, nil), newUpperTask(nil), helloToText)
		require.NoError(t, err)

		result := pipe.Run(t.Context(), map[string]any{"name": "John"})

		require.Equal(t, KindSuccess, result.Kind, "issues=%v err=%v", result.Issues, result.Err)
		assert.Equal(t, upperOutput{Upper: "HELLO JOHN"}, result.Data)
		assert.Equal(t, "upper", result.Task)
	})

	t.Run("Should accept raw JSON input", func(t *testing.T) {
		pipe, err := Pipe(newGreetTask(nil, nil), newUpperTask(nil), helloToText)
		require.NoError(t, err)

		result := pipe.Run(t.Context(), json.RawMessage(`{"name":"Ada","greeting":"hey"}`))

		assert.Equal(t, upperOutput{Upper: "HEY ADA"}, result.Data)
	})

	t.Run("Should accept typed input through Call", func(t *testing.T) {
		pipe, err := Pipe(newGreetTask(nil, nil), newUpperTask(nil), helloToText)
		require.NoError(t, err)

		result := pipe.Call(t.Context(), greetInput{Name: "Ada"})

		assert.Equal(t, upperOutput{Upper: "HELLO ADA"}, result.Data)
	})

	t.Run("Should derive its descriptor from the stages", func(t *testing.T) {
		greet := newGreetTask(nil, nil)
		upper := newUpperTask(nil)
		pipe, err := Pipe(greet, upper, helloToText)
		require.NoError(t, err)

		desc := pipe.Descriptor()

		assert.Equal(t, "greet_to_upper", desc.Name)
		assert.Equal(t, "greet_to_upper", pipe.Name())
		assert.Equal(t, greet.Descriptor().InputSchema, desc.InputSchema)
		assert.Equal(t, upper.Descriptor().OutputSchemas, desc.OutputSchemas)
	})

	t.Run("Should not expose mutable schemas", func(t *testing.T) {
		pipe, err := Pipe(newGreetTask(nil, nil), newUpperTask(nil), helloToText)
		require.NoError(t, err)

		(*pipe.Descriptor().InputSchema)["type"] = "array"

		assert.Equal(t, "object", (*pipe.Descriptor().InputSchema)["type"])
	})
}

func TestPipe_Failures(t *testing.T) {
	t.Run("Should short-circuit on an upstream input error", func(t *testing.T) {
		greet := newGreetTask(nil, nil)
		downstream := &counter{}
		pipe, err := Pipe(greet, newUpperTask(downstream), helloToText)
		require.NoError(t, err)

		direct := greet.Run(t.Context(), map[string]any{})
		result := pipe.Run(t.Context(), map[string]any{})

		assert.Equal(t, KindInputError, result.Kind)
		assert.Equal(t, direct.Task, result.Task)
		assert.Equal(t, direct.Issues, result.Issues)
		assert.Equal(t, 0, downstream.count())
	})

	t.Run("Should propagate an upstream execution error unchanged", func(t *testing.T) {
		boom := errors.New("upstream down")
		downstream := &counter{}
		transformed := false
		pipe, err := Pipe(
			newGreetTask(nil, func(context.Context, greetInput) (greetOutput, error) {
				return greetOutput{}, boom
			}),
			newUpperTask(downstream),
			func(ctx context.Context, out greetOutput) (upperInput, error) {
				transformed = true
				return helloToText(ctx, out)
			},
		)
		require.NoError(t, err)

		result := pipe.Run(t.Context(), map[string]any{"name": "John"})

		assert.Equal(t, KindExecutionError, result.Kind)
		assert.Equal(t, "greet", result.Task)
		assert.Same(t, boom, result.Err)
		assert.False(t, transformed)
		assert.Equal(t, 0, downstream.count())
	})

	t.Run("Should propagate an upstream output error unchanged", func(t *testing.T) {
		pipe, err := Pipe(
			newGreetTask(nil, func(context.Context, greetInput) (greetOutput, error) {
				return greetOutput{}, nil
			}),
			newUpperTask(nil),
			helloToText,
		)
		require.NoError(t, err)

		result := pipe.Run(t.Context(), map[string]any{"name": "John"})

		assert.Equal(t, KindOutputError, result.Kind)
		assert.Equal(t, "greet", result.Task)
	})

	t.Run("Should report transform errors as execution errors of the pipe", func(t *testing.T) {
		bad := errors.New("cannot adapt")
		downstream := &counter{}
		pipe, err := Pipe(newGreetTask(nil, nil), newUpperTask(downstream),
			func(context.Context, greetOutput) (upperInput, error) {
				return upperInput{}, bad
			})
		require.NoError(t, err)

		result := pipe.Run(t.Context(), map[string]any{"name": "John"})

		assert.Equal(t, KindExecutionError, result.Kind)
		assert.Equal(t, "greet_to_upper", result.Task)
		assert.ErrorIs(t, result.Err, bad)
		assert.Equal(t, 0, downstream.count())
	})

	t.Run("Should recover transform panics", func(t *testing.T) {
		pipe, err := Pipe(newGreetTask(nil, nil), newUpperTask(nil),
			func(context.Context, greetOutput) (upperInput, error) {
				panic("index out of range")
			})
		require.NoError(t, err)

		result := pipe.Run(t.Context(), map[string]any{"name": "John"})

		assert.Equal(t, KindExecutionError, result.Kind)
		assert.ErrorIs(t, result.Err, ErrPanic)
	})

	t.Run("Should validate the transformed value against the downstream input", func(t *testing.T) {
		downstream := &counter{}
		pipe, err := Pipe(newGreetTask(nil, nil), newGreetTask(downstream, nil),
			func(context.Context, greetOutput) (greetInput, error) {
				return greetInput{}, nil
			})
		require.NoError(t, err)

		result := pipe.Run(t.Context(), map[string]any{"name": "John"})

		assert.Equal(t, KindInputError, result.Kind)
		assert.NotEmpty(t, result.Issues)
		assert.Equal(t, 0, downstream.count())
	})
}

func TestChain(t *testing.T) {
	t.Run("Should bind each transform to the success type of its upstream", func(t *testing.T) {
		greet := newGreetTask(nil, nil)
		upper := newUpperTask(nil)
		exclaim := newExclaimTask(nil)

		chain, err := Chain[greetInput, upperOutput](
			Link(greet, upper, helloToText),
			Link(upper, exclaim, upperToText),
		)
		require.NoError(t, err)

		result := chain.Run(t.Context(), map[string]any{"name": "Ada"})

		require.Equal(t, KindSuccess, result.Kind, "issues=%v err=%v", result.Issues, result.Err)
		assert.Equal(t, upperOutput{Upper: "HELLO ADA!"}, result.Data)
		assert.Equal(t, "greet_to_upper_to_exclaim", chain.Name())
	})

	t.Run("Should behave like nested pipes", func(t *testing.T) {
		greet := newGreetTask(nil, nil)
		upper := newUpperTask(nil)
		exclaim := newExclaimTask(nil)
		inner, err := Pipe(greet, upper, helloToText)
		require.NoError(t, err)
		outer, err := Pipe(inner, exclaim, upperToText)
		require.NoError(t, err)
		chain, err := Chain[greetInput, upperOutput](
			Link(greet, upper, helloToText),
			Link(upper, exclaim, upperToText),
		)
		require.NoError(t, err)

		for _, input := range []any{map[string]any{"name": "Ada"}, map[string]any{}} {
			nested := outer.Run(t.Context(), input)
			flat := chain.Run(t.Context(), input)
			assert.Equal(t, flat.Kind, nested.Kind)
			assert.Equal(t, flat.Data, nested.Data)
			assert.Equal(t, flat.Issues, nested.Issues)
		}
		assert.Equal(t, chain.Name(), outer.Name())
	})

	t.Run("Should stop the third stage when the second fails", func(t *testing.T) {
		boom := errors.New("second stage failed")
		failing, err := New(Spec[upperInput, upperOutput]{
			Name:         "upper",
			InputSchema:  textSchema("text"),
			OutputSchema: textSchema("upper"),
			Fn: func(context.Context, upperInput) (upperOutput, error) {
				return upperOutput{}, boom
			},
		})
		require.NoError(t, err)
		third := &counter{}
		chain, err := Chain[greetInput, upperOutput](
			Link(newGreetTask(nil, nil), failing, helloToText),
			Link(failing, newExclaimTask(third), upperToText),
		)
		require.NoError(t, err)

		result := chain.Run(t.Context(), map[string]any{"name": "Ada"})

		assert.Equal(t, "upper", result.Task)
		assert.Same(t, boom, result.Err)
		assert.Equal(t, 0, third.count())
	})

	t.Run("Should reject an empty chain", func(t *testing.T) {
		_, err := Chain[greetInput, greetOutput]()

		assert.ErrorIs(t, err, ErrEmptyPipe)
	})

	t.Run("Should reject a missing transform", func(t *testing.T) {
		_, err := Pipe(newGreetTask(nil, nil), newUpperTask(nil), nil)

		assert.ErrorIs(t, err, ErrIncompatibleStages)
	})

	t.Run("Should reject a missing runner", func(t *testing.T) {
		var missing Runner[upperInput, upperOutput]

		_, err := Pipe(newGreetTask(nil, nil), missing, helloToText)

		assert.ErrorIs(t, err, ErrIncompatibleStages)
	})

	t.Run("Should reject a zero stage", func(t *testing.T) {
		_, err := Chain[greetInput, upperOutput](Stage{})

		assert.ErrorIs(t, err, ErrIncompatibleStages)
	})

	t.Run("Should reject stages that do not connect", func(t *testing.T) {
		greet := newGreetTask(nil, nil)
		upper := newUpperTask(nil)

		_, err := Chain[greetInput, upperOutput](
			Link(greet, upper, helloToText),
			Link(greet, upper, helloToText),
		)

		assert.ErrorIs(t, err, ErrIncompatibleStages)
	})

	t.Run("Should reject a stage that starts at a different runner with the same name", func(t *testing.T) {
		upper := newUpperTask(nil)
		first := newExclaimTask(nil)
		other := &counter{}
		second := newExclaimTask(other)

		_, err := Chain[upperInput, upperOutput](
			Link(upper, first, upperToText),
			Link(second, newExclaimTask(nil), upperToText),
		)

		require.ErrorIs(t, err, ErrIncompatibleStages)
		assert.Equal(t, 0, other.count())
	})

	t.Run("Should reject mismatched chain types", func(t *testing.T) {
		_, err := Chain[greetInput, greetOutput](Link(newGreetTask(nil, nil), newUpperTask(nil), helloToText))
		assert.ErrorIs(t, err, ErrIncompatibleStages)

		_, err = Chain[upperInput, upperOutput](Link(newGreetTask(nil, nil), newUpperTask(nil), helloToText))
		assert.ErrorIs(t, err, ErrIncompatibleStages)
	})
}

func TestComposite_Reuse(t *testing.T) {
	t.Run("Should keep concurrent runs independent", func(t *testing.T) {
		pipe, err := Pipe(newGreetTask(nil, nil), newUpperTask(nil), helloToText)
		require.NoError(t, err)
		names := []string{"ada", "bob", "cy", "dee", "eve"}
		results := make([]Result[upperOutput], len(names))
		var wg sync.WaitGroup
		for i, name := range names {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = pipe.Run(t.Context(), map[string]any{"name": name})
			}()
		}
		wg.Wait()

		for i, name := range names {
			assert.Equal(t, "HELLO "+strings.ToUpper(name), results[i].Data.Upper)
		}
	})

	t.Run("Should be usable as a stage of another pipe more than once", func(t *testing.T) {
		inner, err := Pipe(newGreetTask(nil, nil), newUpperTask(nil), helloToText)
		require.NoError(t, err)
		first, err := Pipe(inner, newExclaimTask(nil), upperToText)
		require.NoError(t, err)
		second, err := Pipe(inner, newUpperTask(nil), upperToText)
		require.NoError(t, err)

		assert.Equal(t, "HELLO ADA!", first.Run(t.Context(), map[string]any{"name": "ada"}).Data.Upper)
		assert.Equal(t, "HELLO ADA", second.Run(t.Context(), map[string]any{"name": "ada"}).Data.Upper)
		assert.Equal(t, "HELLO ADA", inner.Run(t.Context(), map[string]any{"name": "ada"}).Data.Upper)
	})
}
