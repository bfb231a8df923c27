package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/normanking/lipsync/internal/watch"
)

func newWatchCmd(opts *renderOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <audio-file>",
		Short: "Render, then render again whenever the audio, config or assets change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts, args[0])
		},
	}
}

func runWatch(cmd *cobra.Command, opts *renderOptions, audioPath string) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()
	log := logger.Component("watch")

	w, err := watch.New(logger.Zerolog(), watch.DefaultDelay)
	if err != nil {
		return err
	}
	if err := w.AddFile(audioPath); err != nil {
		return err
	}
	if err := w.AddFile(opts.configPath); err != nil {
		log.Debug().Err(err).Msg("config file not watched")
	}
	if err := w.AddDir(cfg.Assets.Directory); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	once := func(ctx context.Context) {
		// the config is reloaded so edits to it take effect
		cfg, err := opts.loadConfig(cmd)
		if err != nil {
			log.Error().Err(err).Msg("invalid configuration, waiting for changes")
			return
		}
		if _, err := render(ctx, cfg, audioPath, logger, out); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("render failed, waiting for changes")
		}
		fmt.Fprintln(out, dimStyle.Render("Watching for changes, press Ctrl+C to stop"))
	}

	ctx := cmd.Context()
	once(ctx)
	if err := w.Run(ctx, once); err != nil {
		return err
	}
	return ctx.Err()
}
