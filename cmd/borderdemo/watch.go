package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gogpu/cutborder"
	"github.com/gogpu/cutborder/internal/watch"
)

func newWatchCmd(g *globalFlags) *cobra.Command {
	debounce := watch.DefaultDebounce

	cmd := &cobra.Command{
		Use:   "watch SCENE",
		Short: "Render a scene and re-render it whenever the file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := openSession(args[0], g.session())
			if err != nil {
				return err
			}
			defer func() {
				if err := s.close(); err != nil {
					cutborder.Logger().Warn("borderdemo: release failed", "err", err)
				}
			}()

			w, err := watch.New(args[0], watch.WithDebounce(debounce))
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()

			fmt.Fprintf(cmd.OutOrStdout(), "watching %s, writing to %s\n", w.Path(), g.out)
			return serve(ctx, s, w.Changes())
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", debounce, "quiet period before a change is rendered")
	return cmd
}

// serve re-renders on every change until ctx is done. A scene that fails to
// load is logged and the previous render stays in place.
func serve(ctx context.Context, s *session, changes <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			ids, err := s.reload()
			if err != nil {
				cutborder.Logger().Warn("borderdemo: reload failed", "path", s.path, "err", err)
				continue
			}
			cutborder.Logger().Info("borderdemo: re-rendered", "elements", len(ids))
		}
	}
}
