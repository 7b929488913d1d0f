package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

var ErrUnknownOutput = errors.New("unknown output format")

// WriteOutput writes v in the requested format. For the table format
// the text produced by table is written.
func WriteOutput(w io.Writer, format string, v any, table func() string) error {
	switch format {
	case "", OutputTable:
		_, err := fmt.Fprintln(w, table())
		return err
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOutput, format)
	}
}
