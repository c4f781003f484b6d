package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/k-nishida/vexa/trace"
)

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert a motion-trace file to CSV",
		ArgsUsage: "<motion-trace-file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one motion-trace file argument")
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			outPath, stats, err := trace.ConvertMotionTraceFile(cmd.Args().First(), logger)
			if err != nil {
				return err
			}

			fmt.Printf("Converted to %s (%d rows, %d raw, %d skipped)\n",
				outPath, stats.Rows, stats.Raw, stats.Skipped)
			return nil
		},
	}
}
