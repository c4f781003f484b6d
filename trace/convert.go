package trace

import (
	"bufio"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// motionCSVHeader is the header row of a converted motion-trace CSV.
var motionCSVHeader = []string{
	"xyz_magnitude",
	"xyz_cosine_similarity",
	"rot_magnitude",
	"rot_cosine_similarity",
}

// ConvertStats reports what a motion-trace conversion did.
type ConvertStats struct {
	Rows    int // data rows written with parsed numeric fields
	Raw     int // rows written through as raw text (unparseable numbers)
	Skipped int // lines skipped for a wrong field count
}

// ConvertMotionTrace reads a motion-trace file (comma- or whitespace-
// separated, 4 fields per line) from r and writes it as CSV with a header to
// w. Lines with a wrong field count are skipped with a warning; lines whose
// fields are not parseable as numbers are written through as raw text with a
// warning rather than aborting the conversion. A nil logger discards the
// warnings.
func ConvertMotionTrace(r io.Reader, w io.Writer, logger *slog.Logger) (*ConvertStats, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(motionCSVHeader); err != nil {
		return nil, goerr.Wrap(err, "failed to write CSV header")
	}

	stats := &ConvertStats{}
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := splitMotionLine(line)
		if len(fields) != len(motionCSVHeader) {
			logger.Warn("line does not contain 4 values, skipping",
				"line", lineNum, "text", line)
			stats.Skipped++
			continue
		}

		row, ok := formatMotionRow(fields)
		if !ok {
			logger.Warn("could not convert values to float, writing as is",
				"line", lineNum, "text", line)
			stats.Raw++
			row = fields
		} else {
			stats.Rows++
		}

		if err := cw.Write(row); err != nil {
			return nil, goerr.Wrap(err, "failed to write CSV row", goerr.V("line", lineNum))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read motion trace")
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, goerr.Wrap(err, "failed to flush CSV output")
	}

	return stats, nil
}

// splitMotionLine splits on commas first; when that does not yield the
// expected field count it falls back to whitespace splitting.
func splitMotionLine(line string) []string {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if len(fields) != len(motionCSVHeader) {
		fields = strings.Fields(line)
	}
	return fields
}

// formatMotionRow parses all fields as floats and reformats them in their
// shortest representation. Returns false when any field is not numeric.
func formatMotionRow(fields []string) ([]string, bool) {
	row := make([]string, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, false
		}
		row[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return row, true
}

// ConvertMotionTraceFile converts the motion-trace file at path into a
// sibling file with the same base name and a .csv extension, and returns the
// output path.
func ConvertMotionTraceFile(path string, logger *slog.Logger) (string, *ConvertStats, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", nil, goerr.Wrap(err, "failed to open motion trace", goerr.V("path", path))
	}
	defer in.Close()

	outPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".csv"
	out, err := os.Create(outPath)
	if err != nil {
		return "", nil, goerr.Wrap(err, "failed to create CSV file", goerr.V("path", outPath))
	}
	defer out.Close()

	stats, err := ConvertMotionTrace(in, out, logger)
	if err != nil {
		return "", nil, err
	}
	if err := out.Close(); err != nil {
		return "", nil, goerr.Wrap(err, "failed to close CSV file", goerr.V("path", outPath))
	}

	return outPath, stats, nil
}
