package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/k-nishida/vexa"
	"github.com/k-nishida/vexa/remote"
	"github.com/k-nishida/vexa/results"
	"github.com/k-nishida/vexa/trace"
	tracelogger "github.com/k-nishida/vexa/trace/logger"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Evaluate a policy over a task suite",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "suite-file",
				Sources:  cli.EnvVars("VEXA_SUITE_FILE"),
				Usage:    "YAML task suite definition",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "policy-url",
				Sources:  cli.EnvVars("VEXA_POLICY_URL"),
				Usage:    "Base URL of the policy inference server",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "env-url",
				Sources:  cli.EnvVars("VEXA_ENV_URL"),
				Usage:    "Base URL of the simulator bridge",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "trials",
				Value:   vexa.DefaultTrialsPerTask,
				Sources: cli.EnvVars("VEXA_TRIALS"),
				Usage:   "Number of episodes per task",
			},
			&cli.IntFlag{
				Name:    "steps-wait",
				Value:   vexa.DefaultNumStepsWait,
				Sources: cli.EnvVars("VEXA_STEPS_WAIT"),
				Usage:   "Number of no-op settling steps per episode",
			},
			&cli.BoolFlag{
				Name:    "replan",
				Sources: cli.EnvVars("VEXA_REPLAN"),
				Usage:   "Enable motion-similarity-gated replanning",
			},
			&cli.FloatFlag{
				Name:    "direction-tolerance",
				Value:   vexa.DefaultDirectionTolerance,
				Sources: cli.EnvVars("VEXA_DIRECTION_TOLERANCE"),
				Usage:   "Replan when a cosine similarity drops below the negated tolerance",
			},
			&cli.FloatFlag{
				Name:    "motion-floor",
				Value:   vexa.DefaultMotionFloor,
				Sources: cli.EnvVars("VEXA_MOTION_FLOOR"),
				Usage:   "Replan when a motion magnitude drops below this floor",
			},
			&cli.BoolFlag{
				Name:  "no-binarize",
				Usage: "Keep the normalized gripper command continuous",
			},
			&cli.BoolFlag{
				Name:  "no-invert",
				Usage: "Skip the gripper sign flip after normalization",
			},
			&cli.StringFlag{
				Name:    "log-dir",
				Value:   "./logs",
				Sources: cli.EnvVars("VEXA_LOG_DIR"),
				Usage:   "Directory for run logs and the motion trace",
			},
			&cli.StringFlag{
				Name:    "results-dir",
				Sources: cli.EnvVars("VEXA_RESULTS_DIR"),
				Usage:   "Directory for per-task JSON result files (disabled when empty)",
			},
			&cli.StringFlag{
				Name:    "replay-dir",
				Sources: cli.EnvVars("VEXA_REPLAY_DIR"),
				Usage:   "Directory for episode replay frames (disabled when empty)",
			},
			&cli.StringFlag{
				Name:  "note",
				Usage: "Extra tag appended to the run ID in log file names",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file before reading flags",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log at debug level",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if path := cmd.String("env-file"); path != "" {
				if err := godotenv.Load(path); err != nil {
					return ctx, fmt.Errorf("failed to load env file %s: %w", path, err)
				}
			}
			return ctx, nil
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	level := slog.LevelInfo
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	suite, err := vexa.LoadSuite(cmd.String("suite-file"))
	if err != nil {
		return err
	}

	logDir := cmd.String("log-dir")
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	runID := fmt.Sprintf("EVAL-%s-%s", suite.Name, time.Now().Format("2006_01_02-15_04_05"))
	if note := cmd.String("note"); note != "" {
		runID += "--" + note
	}

	runLog, err := trace.NewRunLog(filepath.Join(logDir, runID+".txt"))
	if err != nil {
		return err
	}

	handlers := []trace.Handler{
		runLog,
		tracelogger.New(tracelogger.WithLogger(logger)),
	}

	options := []vexa.Option{
		vexa.WithLogger(logger),
		vexa.WithTrialsPerTask(int(cmd.Int("trials"))),
		vexa.WithNumStepsWait(int(cmd.Int("steps-wait"))),
		vexa.WithBinarizeGripper(!cmd.Bool("no-binarize")),
		vexa.WithInvertGripper(!cmd.Bool("no-invert")),
	}

	if cmd.Bool("replan") {
		options = append(options, vexa.WithReplan(vexa.ReplanPolicy{
			DirectionTolerance: cmd.Float("direction-tolerance"),
			MotionFloor:        cmd.Float("motion-floor"),
		}))

		motion, err := trace.NewMotionWriter(filepath.Join(logDir, "motion_trace.out"))
		if err != nil {
			return err
		}
		handlers = append(handlers, motion)
	}

	options = append(options, vexa.WithTraceHandler(trace.Multi(handlers...)))

	if dir := cmd.String("results-dir"); dir != "" {
		options = append(options, vexa.WithResultStore(results.NewStore(dir)))
	}
	if dir := cmd.String("replay-dir"); dir != "" {
		options = append(options, vexa.WithReplaySink(trace.NewDirSink(dir)))
	}

	runner := vexa.New(
		remote.NewPolicy(cmd.String("policy-url")),
		remote.NewEnvironment(cmd.String("env-url")),
		options...,
	)

	summary, err := runner.Evaluate(ctx, suite)
	if err != nil {
		return err
	}

	fmt.Printf("Suite: %s\n", summary.Suite)
	fmt.Printf("Episodes: %d\n", summary.Episodes)
	fmt.Printf("Successes: %d\n", summary.Successes)
	fmt.Printf("Success rate: %.4f\n", summary.SuccessRate())
	fmt.Printf("Average steps: %.1f\n", summary.AvgSteps())
	return nil
}
