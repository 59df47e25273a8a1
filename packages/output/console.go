package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// FormatStatus renders the dependency tree, one line per key, followed by
// the summary tally and optional contention timings.
func (f *ConsoleFormatter) FormatStatus(st *Status) error {
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n\n", bold("Gatekeepers"))

	visited := make(map[string]bool)
	for _, root := range st.roots() {
		f.renderTree(st, root, 0, visited)
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	s := st.Summary
	fmt.Fprintf(f.writer, "\n%s %d total, %s, %s\n",
		bold("Summary:"), s.Total,
		green(fmt.Sprintf("%d passed", s.Passed)),
		red(fmt.Sprintf("%d failed", s.Failed)))

	if st.Timings != nil && (st.Timings.LockWait.Count > 0 || st.Timings.ResultWait.Count > 0) {
		f.renderTimings(st)
	}
	return nil
}

// renderTree prints key and recurses into its declared dependencies. The
// visited set keeps cyclic graphs from looping; a revisited key is shown
// once more without expansion.
func (f *ConsoleFormatter) renderTree(st *Status, key string, depth int, visited map[string]bool) {
	indent := strings.Repeat("  ", depth+1)
	fmt.Fprintf(f.writer, "%s%s %s%s\n", indent, f.symbol(st, key), key, f.detail(st, key))

	if visited[key] {
		return
	}
	visited[key] = true

	for _, dep := range st.Dependencies[key] {
		f.renderTree(st, dep, depth+1, visited)
	}
}

func (f *ConsoleFormatter) symbol(st *Status, key string) string {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	r, ok := st.Results[key]
	switch {
	case !ok:
		return yellow("-")
	case r.Passed:
		return green("✓")
	default:
		return red("✗")
	}
}

func (f *ConsoleFormatter) detail(st *Status, key string) string {
	r, ok := st.Results[key]
	if !ok {
		return " (no result)"
	}

	var out string
	if !r.Passed && r.Error != "" {
		red := color.New(color.FgRed).SprintFunc()
		out = " " + red("("+r.Error+")")
	}
	if f.verbose {
		gray := color.New(color.Faint).SprintFunc()
		out += " " + gray("at "+time.UnixMilli(r.Timestamp).Format("15:04:05.000"))
	}
	return out
}

func (f *ConsoleFormatter) renderTimings(st *Status) {
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n", cyan("Timings"))
	if lw := st.Timings.LockWait; lw.Count > 0 {
		fmt.Fprintf(f.writer, "  lock wait:   %d samples, p50 %v, p95 %v, max %v\n",
			lw.Count, lw.P50, lw.P95, lw.Max)
	}
	if rw := st.Timings.ResultWait; rw.Count > 0 {
		fmt.Fprintf(f.writer, "  result wait: %d samples, p50 %v, p95 %v, max %v\n",
			rw.Count, rw.P50, rw.P95, rw.Max)
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}
