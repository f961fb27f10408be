package builtin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/oetzilabs/wfa/engine/task"
)

var (
	ErrDuplicateTask = errors.New("task already registered")
	ErrTaskNotFound  = errors.New("task not found")
)

// Entry is a registered runner with its payload type erased.
type Entry struct {
	Descriptor task.Descriptor
	Run        func(ctx context.Context, raw any) task.Result[any]
}

// Catalog indexes runners by task name. It is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]Entry)}
}

// Register adds r under its descriptor name.
func Register[I, O any](c *Catalog, r task.Runner[I, O]) error {
	if r == nil {
		return fmt.Errorf("%w: runner must not be nil", task.ErrInvalidSpec)
	}
	desc := r.Descriptor()
	entry := Entry{
		Descriptor: desc,
		Run: func(ctx context.Context, raw any) task.Result[any] {
			return r.Run(ctx, raw).Erase()
		},
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[desc.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, desc.Name)
	}
	c.entries[desc.Name] = entry
	return nil
}

func (c *Catalog) Lookup(name string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[strings.TrimSpace(name)]
	return entry, ok
}

// Run invokes the named task. Only an unknown name is reported as an error;
// task failures are part of the returned result.
func (c *Catalog) Run(ctx context.Context, name string, raw any) (task.Result[any], error) {
	entry, ok := c.Lookup(name)
	if !ok {
		return task.Result[any]{}, fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}
	return entry.Run(ctx, raw), nil
}

func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// List returns copies of all descriptors ordered by name.
func (c *Catalog) List() []task.Descriptor {
	names := c.Names()
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]task.Descriptor, 0, len(names))
	for _, name := range names {
		if entry, ok := c.entries[name]; ok {
			out = append(out, entry.Descriptor)
		}
	}
	return out
}
