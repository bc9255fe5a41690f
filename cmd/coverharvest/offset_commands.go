package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"coverharvest/internal/harvest"
	"coverharvest/internal/offset"
)

func newOffsetCommand(ctx *commandContext) *cobra.Command {
	offsetCmd := &cobra.Command{
		Use:   "offset",
		Short: "Inspect or reset the resume offset",
	}
	offsetCmd.AddCommand(newOffsetShowCommand(ctx))
	offsetCmd.AddCommand(newOffsetResetCommand(ctx))
	return offsetCmd
}

func newOffsetShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored offset and the next artist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			value, err := offset.Read(cfg.Paths.OffsetFile)
			if err != nil {
				return err
			}
			_, statErr := os.Stat(cfg.Paths.OffsetFile)
			stored := statErr == nil

			total, next := "unknown", "-"
			artists, err := harvest.LoadArtists(cfg.Paths.ArtistsFile)
			switch {
			case err == nil:
				total = strconv.Itoa(len(artists))
				if value < len(artists) {
					next = artists[value]
				} else {
					next = "(list complete)"
				}
			case errors.Is(err, os.ErrNotExist):
			default:
				return err
			}

			rows := [][]string{
				{"Offset file", cfg.Paths.OffsetFile},
				{"Stored", yesNo(stored)},
				{"Offset", strconv.Itoa(value)},
				{"Artists", total},
				{"Next artist", next},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows))
			return nil
		},
	}
}

func newOffsetResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the stored offset so the next run starts from the first artist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := offset.Reset(cfg.Paths.OffsetFile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Offset reset (%s)\n", cfg.Paths.OffsetFile)
			return nil
		},
	}
}
