package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// readInput returns the task input as raw JSON. Inline input and files may be
// JSON or YAML; "-" reads stdin.
func readInput(stdin io.Reader, inline, file string) (json.RawMessage, error) {
	if inline != "" && file != "" {
		return nil, fmt.Errorf("use either --input or --input-file, not both")
	}
	var data []byte
	isYAML := false
	switch {
	case inline != "":
		data = []byte(inline)
	case file == "-":
		read, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		data = read
	case file != "":
		read, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		data = read
		ext := strings.ToLower(filepath.Ext(file))
		isYAML = ext == ".yaml" || ext == ".yml"
	default:
		return json.RawMessage("{}"), nil
	}
	trimmed := strings.TrimSpace(string(data))
	if !isYAML && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), nil
	}
	converted, err := yaml.YAMLToJSON([]byte(trimmed))
	if err != nil {
		return nil, fmt.Errorf("input is neither JSON nor YAML: %w", err)
	}
	return json.RawMessage(converted), nil
}
