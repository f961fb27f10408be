package csvjson

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oetzilabs/wfa/engine/task"
	"github.com/oetzilabs/wfa/engine/task/builtin"
	"github.com/oetzilabs/wfa/pkg/config"
	"github.com/oetzilabs/wfa/pkg/logger"
)

const (
	JSONToCSVName = "json_to_csv"
	CSVToJSONName = "csv_to_json"
)

type JSONToCSVInput struct {
	Data      []json.RawMessage `json:"data"`
	Delimiter string            `json:"delimiter,omitempty"`
}

type JSONToCSVOutput struct {
	CSV       string `json:"csv"`
	Delimiter string `json:"delimiter"`
}

type CSVToJSONInput struct {
	CSV       string `json:"csv"`
	Delimiter string `json:"delimiter,omitempty"`
}

type CSVToJSONOutput struct {
	Data []json.RawMessage `json:"data"`
}

func checkDelimiter(name, delimiter string) error {
	if !config.IsDelimiter(delimiter) {
		return fmt.Errorf("%w: task %s: unsupported delimiter %q", task.ErrInvalidSpec, name, delimiter)
	}
	return nil
}

// NewJSONToCSV returns the json_to_csv task. delimiter applies when the input
// omits one.
func NewJSONToCSV(delimiter string, opts ...task.Option) (*task.Task[JSONToCSVInput, JSONToCSVOutput], error) {
	if err := checkDelimiter(JSONToCSVName, delimiter); err != nil {
		return nil, err
	}
	return task.New(task.Spec[JSONToCSVInput, JSONToCSVOutput]{
		Name:         JSONToCSVName,
		Description:  "Converts JSON records into CSV text.",
		InputSchema:  jsonToCSVInputSchema(delimiter),
		OutputSchema: jsonToCSVOutputSchema(),
		Fn:           jsonToCSV,
	}, opts...)
}

// NewCSVToJSON returns the csv_to_json task.
func NewCSVToJSON(delimiter string, opts ...task.Option) (*task.Task[CSVToJSONInput, CSVToJSONOutput], error) {
	if err := checkDelimiter(CSVToJSONName, delimiter); err != nil {
		return nil, err
	}
	return task.New(task.Spec[CSVToJSONInput, CSVToJSONOutput]{
		Name:         CSVToJSONName,
		Description:  "Parses CSV text with a header row into JSON records.",
		InputSchema:  csvToJSONInputSchema(delimiter),
		OutputSchema: csvToJSONOutputSchema(),
		Fn:           csvToJSON,
	}, opts...)
}

// ThreadDelimiter feeds the CSV produced upstream, and the delimiter it was
// written with, into csv_to_json.
func ThreadDelimiter(_ context.Context, out JSONToCSVOutput) (CSVToJSONInput, error) {
	return CSVToJSONInput{CSV: out.CSV, Delimiter: out.Delimiter}, nil
}

// NewRoundTrip pipes json_to_csv into csv_to_json.
func NewRoundTrip(
	toCSV task.Runner[JSONToCSVInput, JSONToCSVOutput],
	toJSON task.Runner[CSVToJSONInput, CSVToJSONOutput],
) (*task.Composite[JSONToCSVInput, CSVToJSONOutput], error) {
	return task.Pipe(toCSV, toJSON, ThreadDelimiter)
}

func jsonToCSV(ctx context.Context, in JSONToCSVInput) (JSONToCSVOutput, error) {
	text, err := encodeRows(in.Data, rune(in.Delimiter[0]))
	if err != nil {
		return JSONToCSVOutput{}, builtin.Internal(fmt.Errorf("failed to write csv: %w", err), nil)
	}
	logger.FromContext(ctx).Debug("Encoded csv", "rows", len(in.Data), "bytes", len(text))
	return JSONToCSVOutput{CSV: text, Delimiter: in.Delimiter}, nil
}

func csvToJSON(ctx context.Context, in CSVToJSONInput) (CSVToJSONOutput, error) {
	rows, err := decodeRows(in.CSV, rune(in.Delimiter[0]))
	if err != nil {
		details := map[string]any{"delimiter": in.Delimiter}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			details["line"] = parseErr.Line
			details["column"] = parseErr.Column
		}
		return CSVToJSONOutput{}, builtin.MalformedCSV(fmt.Errorf("failed to parse csv: %w", err), details)
	}
	logger.FromContext(ctx).Debug("Decoded csv", "rows", len(rows))
	return CSVToJSONOutput{Data: rows}, nil
}
