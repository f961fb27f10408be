package task

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/oetzilabs/wfa/pkg/logger"
)

// Transform adapts an upstream success payload into the downstream input.
type Transform[B, C any] func(ctx context.Context, in B) (C, error)

// Identity passes the upstream payload through unchanged.
func Identity[B any]() Transform[B, B] {
	return func(_ context.Context, in B) (B, error) {
		return in, nil
	}
}

// node is a runner with its static types erased.
type node struct {
	src  any
	desc Descriptor
	in   reflect.Type
	out  reflect.Type
	run  func(ctx context.Context, raw any) Result[any]
	call func(ctx context.Context, input any) Result[any]
}

func nodeOf[I, O any](r Runner[I, O]) node {
	desc := r.Descriptor()
	return node{
		src:  r,
		desc: desc,
		in:   reflect.TypeFor[I](),
		out:  reflect.TypeFor[O](),
		run: func(ctx context.Context, raw any) Result[any] {
			return r.Run(ctx, raw).Erase()
		},
		call: func(ctx context.Context, input any) Result[any] {
			var typed I
			if input != nil {
				v, ok := input.(I)
				if !ok {
					return executionFailed[any](desc.Name, fmt.Errorf(
						"%w: %s expects %s, got %T", ErrIncompatibleStages, desc.Name, reflect.TypeFor[I](), input,
					))
				}
				typed = v
			}
			return r.Call(ctx, typed).Erase()
		},
	}
}

// Stage is one (upstream, downstream, transform) triple of a pipe. Build it
// with Link so the compiler checks the transform against both runners.
type Stage struct {
	upstream   node
	downstream node
	transform  func(ctx context.Context, in any) (any, error)
	err        error
}

// Link binds a transform from up's success payload B to down's input C.
func Link[I, B, C, O any](up Runner[I, B], down Runner[C, O], transform Transform[B, C]) Stage {
	if up == nil || down == nil {
		return Stage{err: fmt.Errorf("%w: stage runners must not be nil", ErrIncompatibleStages)}
	}
	if transform == nil {
		return Stage{err: fmt.Errorf("%w: transform must not be nil", ErrIncompatibleStages)}
	}
	return Stage{
		upstream:   nodeOf(up),
		downstream: nodeOf(down),
		transform: func(ctx context.Context, in any) (any, error) {
			var typed B
			if in != nil {
				typed = in.(B)
			}
			return transform(ctx, typed)
		},
	}
}

type link struct {
	from      string
	transform func(ctx context.Context, in any) (any, error)
	down      node
}

// Composite is a runner made of chained stages.
type Composite[I, O any] struct {
	desc  Descriptor
	head  node
	links []link
}

var _ Runner[any, any] = (*Composite[any, any])(nil)

// Pipe composes two runners into one.
func Pipe[I, B, C, O any](up Runner[I, B], down Runner[C, O], transform Transform[B, C]) (*Composite[I, O], error) {
	return Chain[I, O](Link(up, down, transform))
}

// Chain composes stages into one runner. The downstream of stage i must be the
// upstream of stage i+1. Misconfigured chains fail here, before any run.
func Chain[I, O any](stages ...Stage) (*Composite[I, O], error) {
	if len(stages) == 0 {
		return nil, ErrEmptyPipe
	}
	for i, stage := range stages {
		if stage.err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, stage.err)
		}
		if stage.upstream.run == nil || stage.transform == nil {
			return nil, fmt.Errorf("%w: stage %d was not built with Link", ErrIncompatibleStages, i)
		}
		if i == 0 {
			continue
		}
		prev := stages[i-1].downstream
		if !sameRunner(stage.upstream.src, prev.src) {
			return nil, fmt.Errorf(
				"%w: stage %d starts at %s but stage %d ends at %s",
				ErrIncompatibleStages, i, stage.upstream.desc.Name, i-1, prev.desc.Name,
			)
		}
	}
	head := stages[0].upstream
	tail := stages[len(stages)-1].downstream
	if want := reflect.TypeFor[I](); head.in != want {
		return nil, fmt.Errorf("%w: pipe input %s does not match %s input %s", ErrIncompatibleStages, want, head.desc.Name, head.in)
	}
	if want := reflect.TypeFor[O](); tail.out != want {
		return nil, fmt.Errorf("%w: pipe output %s does not match %s output %s", ErrIncompatibleStages, want, tail.desc.Name, tail.out)
	}
	names := []string{head.desc.Name}
	links := make([]link, 0, len(stages))
	for _, stage := range stages {
		names = append(names, stage.downstream.desc.Name)
		links = append(links, link{
			from:      stage.upstream.desc.Name,
			transform: stage.transform,
			down:      stage.downstream,
		})
	}
	return &Composite[I, O]{
		desc: Descriptor{
			Name:          strings.Join(names, "_to_"),
			Description:   "Pipe of " + strings.Join(names, " -> "),
			InputSchema:   head.desc.InputSchema,
			OutputSchemas: tail.desc.OutputSchemas,
		},
		head:  head,
		links: links,
	}, nil
}

// sameRunner reports whether a and b are the same runner value. Runners of
// non-comparable types never match.
func sameRunner(a, b any) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == nil || ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

func (c *Composite[I, O]) Name() string {
	return c.desc.Name
}

func (c *Composite[I, O]) Descriptor() Descriptor {
	return c.desc.clone()
}

func (c *Composite[I, O]) Run(ctx context.Context, raw any) Result[O] {
	return c.drive(ctx, c.head.run(ctx, raw))
}

func (c *Composite[I, O]) Call(ctx context.Context, input I) Result[O] {
	return c.drive(ctx, c.head.call(ctx, input))
}

func (c *Composite[I, O]) drive(ctx context.Context, current Result[any]) Result[O] {
	log := logger.FromContext(ctx)
	for _, l := range c.links {
		if !current.Success() {
			log.Debug("Pipe stopped at failing stage", "pipe", c.desc.Name, "stage", current.Task, "kind", current.Kind)
			return narrow[O](current)
		}
		next, err := applyTransform(ctx, l.transform, current.Data)
		if err != nil {
			log.Debug("Pipe transform failed", "pipe", c.desc.Name, "from", l.from, "to", l.down.desc.Name)
			return executionFailed[O](c.desc.Name, fmt.Errorf("transform %s -> %s: %w", l.from, l.down.desc.Name, err))
		}
		current = l.down.call(ctx, next)
	}
	return narrow[O](current)
}

func applyTransform(
	ctx context.Context,
	transform func(ctx context.Context, in any) (any, error),
	in any,
) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return transform(ctx, in)
}
