package encode

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/inkframe/inkframe/api"
)

// ClipboardSink delivers a raster artifact to the system clipboard.
type ClipboardSink interface {
	Name() string
	Available() bool
	Write(ctx context.Context, artifact api.Artifact) error
}

// ToolClipboard shells out to the platform clipboard utility, probed in
// priority order.
type ToolClipboard struct{}

type clipboardTool struct {
	binary string
	args   func(mime string) []string
}

var clipboardTools = []clipboardTool{
	{binary: "wl-copy", args: func(mime string) []string { return []string{"--type", mime} }},
	{binary: "xclip", args: func(mime string) []string { return []string{"-selection", "clipboard", "-t", mime} }},
}

func (ToolClipboard) Name() string {
	return "clipboard"
}

// Available reports whether any clipboard utility is in PATH.
func (ToolClipboard) Available() bool {
	for _, tool := range clipboardTools {
		if _, err := exec.LookPath(tool.binary); err == nil {
			return true
		}
	}
	return false
}

// Write pipes the artifact into the first available clipboard utility.
func (c ToolClipboard) Write(ctx context.Context, artifact api.Artifact) error {
	for _, tool := range clipboardTools {
		if _, err := exec.LookPath(tool.binary); err != nil {
			continue
		}
		cmd := exec.CommandContext(ctx, tool.binary, tool.args(artifact.MIME)...)
		cmd.Stdin = bytes.NewReader(artifact.Bytes)
		output, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("%s rejected clipboard write: %w, output: %s", tool.binary, err, string(output))
		}
		return nil
	}
	return fmt.Errorf("no clipboard utility available")
}
