package encode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/inkframe/inkframe/api"
)

// DownloadSink delivers a finished artifact as a file. Deliver returns the
// destination the artifact ended up at.
type DownloadSink interface {
	Name() string
	Deliver(ctx context.Context, artifact api.Artifact) (string, error)
}

// FileSink writes artifacts into a directory. The write goes through a
// temporary file and a rename so a rejected or interrupted delivery leaves no
// partial file behind.
type FileSink struct {
	Dir string
}

func (s FileSink) Name() string {
	return "download"
}

func (s FileSink) Deliver(ctx context.Context, artifact api.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+artifact.Filename+".*")
	if err != nil {
		return "", fmt.Errorf("failed to stage artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(artifact.Bytes); err != nil {
		tmp.Close()          //nolint:errcheck
		os.Remove(tmpName)   //nolint:errcheck
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	dest := filepath.Join(dir, artifact.Filename)
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return "", fmt.Errorf("failed to place artifact: %w", err)
	}
	return dest, nil
}
