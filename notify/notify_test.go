package notify

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsole_Prefixes(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	c.Progress("working")
	c.Success("done")
	c.Warning("careful")
	c.Failure("broke")

	out := buf.String()
	assert.Contains(t, out, "working")
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "! careful")
	assert.Contains(t, out, "✗ broke")
}

func TestDiscard(t *testing.T) {
	// must be safe to call with no setup
	d := Discard{}
	d.Progress("a")
	d.Success("b")
	d.Warning("c")
	d.Failure("d")
}
