// Package output formats user-facing CLI messages and progress lines.
package output

import (
	"fmt"
	"io"
	"strings"
)

// barWidth is the character width of rendered progress bars.
const barWidth = 30

// Writer prints formatted messages to a terminal-ish destination.
// Write errors are ignored; console output is best effort.
type Writer struct {
	dst io.Writer
}

// New creates a Writer targeting dst.
func New(dst io.Writer) *Writer {
	return &Writer{dst: dst}
}

// Status prints a message prefixed with an icon, or aligned with the
// icon column when the icon is empty.
func (w *Writer) Status(icon, msg string) {
	prefix := "  "
	if icon != "" {
		prefix = icon
	}
	fmt.Fprintf(w.dst, "%s %s\n", prefix, msg)
}

// Statusf is Status with printf formatting.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success line.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf is Success with printf formatting.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning line.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Warningf is Warning with printf formatting.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error line.
func (w *Writer) Error(msg string) {
	w.Status("❌", msg)
}

// Errorf is Error with printf formatting.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Code prints content indented as a block, surrounded by blank lines.
func (w *Writer) Code(content string) {
	fmt.Fprintln(w.dst)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(w.dst, "  %s\n", line)
	}
	fmt.Fprintln(w.dst)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	fmt.Fprintln(w.dst)
}

// Progress redraws an in-place progress line. The line is terminated
// once current reaches total.
func (w *Writer) Progress(current, total int, msg string) {
	if total <= 0 {
		return
	}
	if current > total {
		current = total
	}
	if current < 0 {
		current = 0
	}

	filled := current * barWidth / total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	fmt.Fprintf(w.dst, "\r[%s] %3d%% %s", bar, current*100/total, msg)

	if current == total {
		fmt.Fprintln(w.dst)
	}
}

// ProgressDone terminates an in-place progress line.
func (w *Writer) ProgressDone() {
	fmt.Fprintln(w.dst)
}
