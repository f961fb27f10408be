package hello

import (
	"context"
	"fmt"

	"github.com/oetzilabs/wfa/engine/schema"
	"github.com/oetzilabs/wfa/engine/task"
	"github.com/oetzilabs/wfa/pkg/logger"
)

const TaskName = "hello_world"

type Input struct {
	Name   string         `json:"name"             jsonschema:"minLength=1,description=Who to greet"`
	Config map[string]any `json:"config,omitempty" jsonschema:"description=Free-form settings echoed to the logs"`
}

type Output struct {
	Hello string `json:"hello"`
}

// New returns the hello_world task.
func New(opts ...task.Option) (*task.Task[Input, Output], error) {
	in, err := schema.FromType[Input]()
	if err != nil {
		return nil, fmt.Errorf("failed to derive %s input schema: %w", TaskName, err)
	}
	out, err := schema.FromType[Output]()
	if err != nil {
		return nil, fmt.Errorf("failed to derive %s output schema: %w", TaskName, err)
	}
	return task.New(task.Spec[Input, Output]{
		Name:         TaskName,
		Description:  "Greets the given name.",
		InputSchema:  in,
		OutputSchema: out,
		Fn:           run,
	}, opts...)
}

func run(ctx context.Context, in Input) (Output, error) {
	logger.FromContext(ctx).Debug("Greeting", "name", in.Name, "config_keys", len(in.Config))
	return Output{Hello: in.Name}, nil
}
