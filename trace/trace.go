// Package trace provides side-channel observation of evaluation runs.
// Handlers receive run/task/episode lifecycle events and per-step motion
// similarity records; implementations persist them as plain-text run logs,
// motion-trace files, replay frame directories or structured slog output.
package trace

import (
	"context"
	"time"
)

// RunInfo describes a run at start.
type RunInfo struct {
	RunID     string    `json:"run_id"`
	Suite     string    `json:"suite"`
	Trials    int       `json:"trials_per_task"`
	MaxSteps  int       `json:"max_steps"`
	StartedAt time.Time `json:"started_at"`
}

// RunStats summarizes a completed run.
type RunStats struct {
	Episodes    int     `json:"episodes"`
	Successes   int     `json:"successes"`
	SuccessRate float64 `json:"success_rate"`
}

// TaskInfo describes a task at start.
type TaskInfo struct {
	Task        string `json:"task"`
	Instruction string `json:"instruction"`
}

// TaskStats summarizes a completed task.
type TaskStats struct {
	Task        string  `json:"task"`
	Episodes    int     `json:"episodes"`
	Successes   int     `json:"successes"`
	SuccessRate float64 `json:"success_rate"`
	TotalRate   float64 `json:"total_rate"`
}

// EpisodeInfo describes an episode at start. Episode is the 1-based index
// across the whole run; TaskEpisode is the 1-based index within the current
// task.
type EpisodeInfo struct {
	Task        string `json:"task"`
	Episode     int    `json:"episode"`
	TaskEpisode int    `json:"task_episode"`
}

// EpisodeStats summarizes a completed episode, including running totals so
// handlers can report progress without their own bookkeeping. Failure holds
// the contained step error message when the episode failed on an error.
type EpisodeStats struct {
	Task           string  `json:"task"`
	Episode        int     `json:"episode"`
	Steps          int     `json:"steps"`
	Replans        int     `json:"replans"`
	Success        bool    `json:"success"`
	Failure        string  `json:"failure,omitempty"`
	TotalEpisodes  int     `json:"total_episodes"`
	TotalSuccesses int     `json:"total_successes"`
	AvgSteps       float64 `json:"avg_steps"`
}

// MotionRecord is one step's similarity report, emitted only when replanning
// is active and a prior action exists.
type MotionRecord struct {
	XYZMagnitude float64 `json:"xyz_magnitude"`
	XYZCosine    float64 `json:"xyz_cosine_similarity"`
	RotMagnitude float64 `json:"rot_magnitude"`
	RotCosine    float64 `json:"rot_cosine_similarity"`
}

// Handler receives evaluation lifecycle events. Start methods may derive a
// new context that the matching End method receives back. Finish is called
// once after the run ends and is the place to flush and close resources.
type Handler interface {
	StartRun(ctx context.Context, run *RunInfo) context.Context
	EndRun(ctx context.Context, stats *RunStats, err error)
	StartTask(ctx context.Context, task *TaskInfo) context.Context
	EndTask(ctx context.Context, stats *TaskStats)
	StartEpisode(ctx context.Context, ep *EpisodeInfo) context.Context
	EndEpisode(ctx context.Context, stats *EpisodeStats)
	Motion(ctx context.Context, rec *MotionRecord)
	Finish(ctx context.Context) error
}
