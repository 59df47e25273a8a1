package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

type JSONFormatter struct {
	writer io.Writer
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatStatus(st *Status) error {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}

func (f *JSONFormatter) FormatError(err error) {
	out := map[string]string{"error": err.Error()}
	data, _ := json.Marshal(out)
	fmt.Fprintln(f.writer, string(data))
}
