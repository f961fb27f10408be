package schema

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/kaptinlin/jsonschema"
)

// -----------------------------------------------------------------------------
// Validator interface
// -----------------------------------------------------------------------------

// Issue is one normalized validation failure.
type Issue struct {
	Path    string `json:"path"`
	Keyword string `json:"keyword,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Verdict is the outcome of validating one value. Value holds the normalized
// document (defaults applied) when Valid is true.
type Verdict struct {
	Valid  bool
	Value  any
	Issues []Issue
}

type Validator interface {
	Validate(ctx context.Context, s *Schema, value any) Verdict
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, s *Schema, value any) Verdict

func (f ValidatorFunc) Validate(ctx context.Context, s *Schema, value any) Verdict {
	return f(ctx, s, value)
}

// -----------------------------------------------------------------------------
// JSONValidator
// -----------------------------------------------------------------------------

const DefaultCacheSize = 256

// JSONValidator validates values with kaptinlin/jsonschema and memoizes
// compiled schemas by their canonical JSON.
type JSONValidator struct {
	compiled *lru.Cache[string, *jsonschema.Schema]
}

func NewJSONValidator(cacheSize int) (*JSONValidator, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, *jsonschema.Schema](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema cache: %w", err)
	}
	return &JSONValidator{compiled: cache}, nil
}

var defaultValidator = sync.OnceValue(func() *JSONValidator {
	v, err := NewJSONValidator(DefaultCacheSize)
	if err != nil {
		panic(err)
	}
	return v
})

// DefaultValidator returns the process-wide JSONValidator.
func DefaultValidator() *JSONValidator {
	return defaultValidator()
}

func (v *JSONValidator) compile(s *Schema) (*jsonschema.Schema, error) {
	key := s.String()
	if compiled, ok := v.compiled.Get(key); ok {
		return compiled, nil
	}
	compiled, err := s.Compile()
	if err != nil {
		return nil, err
	}
	v.compiled.Add(key, compiled)
	return compiled, nil
}

func (v *JSONValidator) Validate(_ context.Context, s *Schema, value any) Verdict {
	tree, err := ToTree(value)
	if err != nil {
		return Verdict{Issues: []Issue{{Keyword: "encoding", Message: err.Error()}}}
	}
	if s == nil {
		return Verdict{Valid: true, Value: tree}
	}
	tree = applyDefaults(*s, tree)
	compiled, err := v.compile(s)
	if err != nil {
		return Verdict{Issues: []Issue{{Keyword: "schema", Message: err.Error()}}}
	}
	result := compiled.Validate(Plain(tree))
	if result.Valid {
		return Verdict{Valid: true, Value: tree}
	}
	return Verdict{Issues: collectIssues(result)}
}

func collectIssues(result *jsonschema.EvaluationResult) []Issue {
	var issues []Issue
	var walk func(r *jsonschema.EvaluationResult)
	walk = func(r *jsonschema.EvaluationResult) {
		if r == nil {
			return
		}
		path := pointerToPath(r.InstanceLocation)
		for _, evalErr := range r.Errors {
			if evalErr == nil {
				continue
			}
			issues = append(issues, Issue{Path: path, Keyword: evalErr.Keyword, Message: evalErr.Error()})
		}
		for _, detail := range r.Details {
			walk(detail)
		}
	}
	walk(result)
	if len(issues) == 0 {
		issues = append(issues, Issue{Message: "value does not match schema"})
	}
	slices.SortFunc(issues, func(a, b Issue) int {
		return cmp.Or(
			cmp.Compare(a.Path, b.Path),
			cmp.Compare(a.Keyword, b.Keyword),
			cmp.Compare(a.Message, b.Message),
		)
	})
	return slices.Compact(issues)
}

// pointerToPath turns a JSON pointer such as /data/0/name into data.0.name.
func pointerToPath(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "#")
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return ""
	}
	segments := strings.Split(pointer, "/")
	for i, segment := range segments {
		segment = strings.ReplaceAll(segment, "~1", "/")
		segments[i] = strings.ReplaceAll(segment, "~0", "~")
	}
	return strings.Join(segments, ".")
}
