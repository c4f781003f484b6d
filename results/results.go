// Package results persists per-task evaluation tallies as JSON files.
//
// Each task gets one file keyed by a configuration signature and, below it, a
// secondary parameter signature; the leaf holds monotonically non-decreasing
// episode and success counters. Files are updated by read-modify-write once
// per episode with no in-memory cache, which is safe only under the
// harness's single-writer, single-process execution model.
package results

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Tally is the leaf counter pair of a result file.
type Tally struct {
	TotalTimes   int `json:"total_times"`
	SuccessTimes int `json:"success_times"`
}

// Store reads and writes per-task result files under a directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created on the
// first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) taskPath(task string) string {
	name := strings.ReplaceAll(task, "/", "_")
	return filepath.Join(s.dir, name+"_log.json")
}

// Load reads the result file for a task. A missing file yields an empty map.
func (s *Store) Load(task string) (map[string]map[string]Tally, error) {
	data := map[string]map[string]Tally{}

	raw, err := os.ReadFile(s.taskPath(task))
	if os.IsNotExist(err) {
		return data, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read result file", goerr.V("task", task))
	}

	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, goerr.Wrap(err, "failed to parse result file", goerr.V("task", task))
	}
	return data, nil
}

// Record increments the episode counter (and the success counter when
// success is set) for the given signature pair, re-reading and re-writing
// the task's file. Returns the updated tally.
func (s *Store) Record(ctx context.Context, task, configKey, paramKey string, success bool) (Tally, error) {
	data, err := s.Load(task)
	if err != nil {
		return Tally{}, err
	}

	if _, ok := data[configKey]; !ok {
		data[configKey] = map[string]Tally{}
	}
	tally := data[configKey][paramKey]
	tally.TotalTimes++
	if success {
		tally.SuccessTimes++
	}
	data[configKey][paramKey] = tally

	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return Tally{}, goerr.Wrap(err, "failed to create results directory", goerr.V("dir", s.dir))
	}

	raw, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return Tally{}, goerr.Wrap(err, "failed to marshal results", goerr.V("task", task))
	}

	path := s.taskPath(task)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return Tally{}, goerr.Wrap(err, "failed to write result file", goerr.V("path", path))
	}

	return tally, nil
}
