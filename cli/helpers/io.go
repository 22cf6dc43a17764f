package helpers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tidwall/pretty"
)

// OutputWriter prints command results as JSON, indented and colored on a
// terminal and compact otherwise.
type OutputWriter struct {
	writer io.Writer
	pretty bool
	color  bool
}

func NewOutputWriter(w io.Writer) *OutputWriter {
	tty := IsTerminal(w)
	return &OutputWriter{
		writer: w,
		pretty: tty,
		color:  tty && ShouldUseColor(w),
	}
}

// WithPretty forces indentation, for example with --pretty on a pipe.
func (ow *OutputWriter) WithPretty(enabled bool) *OutputWriter {
	ow.pretty = enabled
	return ow
}

func (ow *OutputWriter) WriteData(data any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	raw := buf.Bytes()
	out := raw
	if ow.pretty {
		out = pretty.PrettyOptions(raw, &pretty.Options{Width: 80, Indent: "  "})
	}
	if ow.color {
		out = pretty.Color(out, nil)
	}
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	if _, err := ow.writer.Write(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
