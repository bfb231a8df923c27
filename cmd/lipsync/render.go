package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/normanking/lipsync/internal/config"
	"github.com/normanking/lipsync/internal/generator"
	"github.com/normanking/lipsync/internal/logging"
	"github.com/normanking/lipsync/internal/progress"
)

func runRender(cmd *cobra.Command, opts *renderOptions, audioPath string) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	_, err = render(cmd.Context(), cfg, audioPath, logger, cmd.OutOrStdout())
	return err
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	lc := logging.DefaultConfig()
	lc.Level = logging.LevelFor(cfg.Debug.Verbose)
	lc.File = cfg.Debug.LogFile
	return logging.New(lc)
}

// render runs one full generation and prints a summary to out.
func render(ctx context.Context, cfg *config.Config, audioPath string, logger *logging.Logger, out io.Writer) (*generator.Result, error) {
	var reporter progress.Reporter = progress.Nop()
	if cfg.Debug.ShowProgress {
		reporter = progress.NewBar(os.Stderr)
	}

	gen, err := generator.New(ctx, cfg, audioPath,
		generator.WithLogger(logger.Component("generator")),
		generator.WithProgress(reporter),
	)
	if err != nil {
		return nil, err
	}

	res, err := gen.Run(ctx)
	if err != nil {
		return res, err
	}
	printSummary(out, res)
	return res, nil
}

func printSummary(out io.Writer, res *generator.Result) {
	fmt.Fprintln(out)
	switch {
	case res.EncodeErr == nil:
		fmt.Fprintln(out, successStyle.Render("✓ Video saved to: "+res.VideoPath))
	case generator.IsEncoderMissing(res.EncodeErr):
		fmt.Fprintln(out, warnStyle.Render("! FFmpeg not found. Please install FFmpeg."))
	default:
		fmt.Fprintln(out, warnStyle.Render("! FFmpeg failed: "+res.EncodeErr.Error()))
	}

	fmt.Fprintf(out, "  Frames:   %d (%s, %d workers)\n", res.Frames, res.Mode, res.Workers)
	fmt.Fprintf(out, "  Duration: %.2fs\n", res.Stats.Duration.Seconds())
	fmt.Fprintf(out, "  Talking:  %.0f%%\n", res.Stats.TalkingRatio*100)
	fmt.Fprintf(out, "  Elapsed:  %s\n", res.Elapsed.Round(time.Millisecond))
	if !res.FramesRemoved {
		fmt.Fprintf(out, "  Frames saved to: %s\n", res.FramesDir)
	}
	fmt.Fprintln(out, dimStyle.Render("  run "+res.RunID))
}
