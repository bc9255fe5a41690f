package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"coverharvest/internal/config"
	"coverharvest/internal/harvest"
	"coverharvest/internal/logging"
	"coverharvest/internal/prompt"
	"coverharvest/internal/release"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var artistsFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Harvest covers for every artist from the stored offset onward",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			path := cfg.Paths.ArtistsFile
			if strings.TrimSpace(artistsFile) != "" {
				if path, err = config.ExpandPath(artistsFile); err != nil {
					return fmt.Errorf("resolve artist list: %w", err)
				}
			}
			artists, err := harvest.LoadArtists(path)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			// The first signal cancels the run; unregistering lets a second one
			// terminate the process.
			go func() {
				<-runCtx.Done()
				stop()
			}()

			rt, err := buildRuntime(runCtx, cfg, logger, newPrompter(cmd))
			if err != nil {
				return err
			}
			defer func() {
				if cerr := rt.Close(); cerr != nil {
					logger.Warn("release run resources", logging.Error(cerr))
				}
			}()

			stats, err := rt.harvester.Run(runCtx, artists)
			out := cmd.OutOrStdout()
			if errors.Is(err, context.Canceled) {
				logger.Info("exiting early", logging.Int("offset", rt.tracker.Offset()))
				fmt.Fprintln(out, "Exiting early...")
				fmt.Fprintln(out, renderStats(stats))
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderStats(stats))
			fmt.Fprintln(out, "Done!")
			return nil
		},
	}

	cmd.Flags().StringVar(&artistsFile, "artists", "", "Artist list to harvest (defaults to paths.artists_file)")
	return cmd
}

// newPrompter asks on the terminal when stdin is one, and through the
// command's streams otherwise so tests can answer.
func newPrompter(cmd *cobra.Command) release.Prompter {
	if cmd.InOrStdin() == os.Stdin {
		return prompt.NewTerminal()
	}
	return prompt.New(cmd.InOrStdin(), cmd.ErrOrStderr(), true)
}
