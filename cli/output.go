package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/tidwall/pretty"
)

// Output format constants
const (
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// writeJSON renders already encoded JSON in the requested format.
func writeJSON(w io.Writer, data []byte, format string) error {
	var out []byte
	switch format {
	case OutputFormatJSON, "":
		out = pretty.Pretty(data)
		if isTerminal(w) {
			out = pretty.Color(out, nil)
		}
	case OutputFormatYAML:
		converted, err := yaml.JSONToYAML(data)
		if err != nil {
			return fmt.Errorf("failed to convert output to YAML: %w", err)
		}
		out = converted
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
	_, err := w.Write(out)
	return err
}

func writeValue(w io.Writer, v any, format string) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return writeJSON(w, data, format)
}
