package trace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ReplayMeta tags a saved episode replay.
type ReplayMeta struct {
	Episode int
	Success bool
	Task    string
}

// ReplaySink persists the buffered frames of a finished episode. Frames are
// opaque encoded images; assembling them into a video is left to external
// tooling.
type ReplaySink interface {
	SaveEpisode(ctx context.Context, meta ReplayMeta, frames [][]byte) error
}

// DirSink writes each episode into its own directory of numbered frame
// files, named after the episode index, outcome and task description.
type DirSink struct {
	dir string
	ext string
}

// DirSinkOption configures a DirSink.
type DirSinkOption func(*DirSink)

// WithFrameExt sets the file extension for frame files. Default is "png".
func WithFrameExt(ext string) DirSinkOption {
	return func(s *DirSink) {
		s.ext = strings.TrimPrefix(ext, ".")
	}
}

// NewDirSink creates a sink rooted at dir.
func NewDirSink(dir string, opts ...DirSinkOption) *DirSink {
	s := &DirSink{dir: dir, ext: "png"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveEpisode writes one file per frame into
// {dir}/episode={n}--success={bool}--task={description}/.
func (s *DirSink) SaveEpisode(ctx context.Context, meta ReplayMeta, frames [][]byte) error {
	name := fmt.Sprintf("episode=%d--success=%v--task=%s",
		meta.Episode, meta.Success, sanitizeName(meta.Task))
	dir := filepath.Join(s.dir, name)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return goerr.Wrap(err, "failed to create replay directory", goerr.V("dir", dir))
	}

	for i, frame := range frames {
		path := filepath.Join(dir, fmt.Sprintf("frame_%04d.%s", i, s.ext))
		if err := os.WriteFile(path, frame, 0644); err != nil {
			return goerr.Wrap(err, "failed to write replay frame", goerr.V("path", path))
		}
	}

	return nil
}

func sanitizeName(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	return strings.ReplaceAll(s, " ", "_")
}
