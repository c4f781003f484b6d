package trace_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/k-nishida/vexa/trace"
)

func TestConvertMotionTrace(t *testing.T) {
	in := strings.NewReader("0.1234, 0.9800, 0.0500, -0.2000\n" +
		"1.0000, -1.0000, 0.0400, 0.5000\n")
	var out bytes.Buffer

	stats, err := trace.ConvertMotionTrace(in, &out, nil)
	gt.NoError(t, err)
	gt.Equal(t, stats.Rows, 2)
	gt.Equal(t, stats.Raw, 0)
	gt.Equal(t, stats.Skipped, 0)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	gt.Equal(t, len(lines), 3)
	gt.Equal(t, lines[0], "xyz_magnitude,xyz_cosine_similarity,rot_magnitude,rot_cosine_similarity")
	// Numbers are reformatted to their shortest representation.
	gt.Equal(t, lines[1], "0.1234,0.98,0.05,-0.2")
	gt.Equal(t, lines[2], "1,-1,0.04,0.5")
}

func TestConvertMotionTraceWhitespaceSeparated(t *testing.T) {
	in := strings.NewReader("0.1 0.2 0.3 0.4\n")
	var out bytes.Buffer

	stats, err := trace.ConvertMotionTrace(in, &out, nil)
	gt.NoError(t, err)
	gt.Equal(t, stats.Rows, 1)
	gt.S(t, out.String()).Contains("0.1,0.2,0.3,0.4")
}

func TestConvertMotionTraceSkipsWrongFieldCount(t *testing.T) {
	in := strings.NewReader("0.1, 0.2, 0.3\n" + // too few
		"0.1, 0.2, 0.3, 0.4, 0.5\n" + // too many
		"0.1, 0.2, 0.3, 0.4\n")
	var out bytes.Buffer

	stats, err := trace.ConvertMotionTrace(in, &out, nil)
	gt.NoError(t, err)
	gt.Equal(t, stats.Rows, 1)
	gt.Equal(t, stats.Skipped, 2)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	gt.Equal(t, len(lines), 2)
}

func TestConvertMotionTraceRawWriteThrough(t *testing.T) {
	in := strings.NewReader("0.1, oops, 0.3, 0.4\n")
	var out bytes.Buffer

	stats, err := trace.ConvertMotionTrace(in, &out, nil)
	gt.NoError(t, err)
	gt.Equal(t, stats.Rows, 0)
	gt.Equal(t, stats.Raw, 1)

	// The unparseable line survives as raw text.
	gt.S(t, out.String()).Contains("0.1,oops,0.3,0.4")
}

func TestConvertMotionTraceSkipsEmptyLines(t *testing.T) {
	in := strings.NewReader("\n0.1, 0.2, 0.3, 0.4\n\n\n")
	var out bytes.Buffer

	stats, err := trace.ConvertMotionTrace(in, &out, nil)
	gt.NoError(t, err)
	gt.Equal(t, stats.Rows, 1)
	gt.Equal(t, stats.Skipped, 0)
}

func TestConvertMotionTraceFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "motion_trace.out")
	gt.NoError(t, os.WriteFile(src, []byte("0.5000, 1.0000, 0.2000, 0.9000\n"), 0644))

	outPath, stats, err := trace.ConvertMotionTraceFile(src, nil)
	gt.NoError(t, err)
	gt.Equal(t, outPath, filepath.Join(dir, "motion_trace.csv"))
	gt.Equal(t, stats.Rows, 1)

	raw, err := os.ReadFile(outPath)
	gt.NoError(t, err)
	gt.S(t, string(raw)).Contains("0.5,1,0.2,0.9")
}

func TestConvertMotionTraceFileMissing(t *testing.T) {
	_, _, err := trace.ConvertMotionTraceFile(filepath.Join(t.TempDir(), "nope.out"), nil)
	gt.Error(t, err)
}
