package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_StatusAndIcons(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Status("🔍", "Searching contexts")
	w.Success("Indexing complete")
	w.Warning("Operation cancelled by user")
	w.Errorf("Indexing failed: %s", "disk full")

	out := buf.String()
	assert.Contains(t, out, "🔍 Searching contexts")
	assert.Contains(t, out, "✅ Indexing complete")
	assert.Contains(t, out, "⚠️")
	assert.Contains(t, out, "❌ Indexing failed: disk full")
}

func TestWriter_Status_EmptyIconAligns(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Status("", "details")

	assert.Equal(t, "   details\n", buf.String())
}

func TestWriter_Code_IndentsEveryLine(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Code("line one\nline two")

	out := buf.String()
	assert.Contains(t, out, "  line one\n")
	assert.Contains(t, out, "  line two\n")
	assert.True(t, strings.HasPrefix(out, "\n"))
	assert.True(t, strings.HasSuffix(out, "\n\n"))
}

func TestWriter_Progress(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Progress(5, 10, "Indexing files (5/10)")
	out := buf.String()
	assert.Contains(t, out, " 50% Indexing files (5/10)")
	assert.True(t, strings.HasPrefix(out, "\r["))
	assert.NotContains(t, out, "\n", "incomplete progress stays on one line")

	buf.Reset()
	w.Progress(10, 10, "Indexing files (10/10)")
	assert.Contains(t, buf.String(), "100%")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestWriter_Progress_IgnoresZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Progress(1, 0, "nothing")

	assert.Empty(t, buf.String())
}

func TestWriter_Progress_ClampsOverflow(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Progress(15, 10, "over")

	assert.Contains(t, buf.String(), "100%")
}
