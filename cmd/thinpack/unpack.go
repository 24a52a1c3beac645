package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dmtools/thinpack/internal/pack"
)

var unpackCmd = &cobra.Command{
	Use:   "unpack",
	Short: "reconstruct a metadata device image from a pack stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")

		res, err := pack.Unpack(cmd.Context(), input, output, options())
		if err != nil {
			return err
		}

		log.Info().
			Uint64("nr_blocks", res.NrBlocks).
			Uint64("metadata_blocks", res.Blocks.Size()).
			Str("runs", res.Blocks.Coalesced().String()).
			Str("gaps", res.Gaps().Coalesced().String()).
			Msg("unpacked")
		return nil
	},
}

func init() {
	unpackCmd.Flags().StringP("input", "i", "", "pack stream to read")
	unpackCmd.Flags().StringP("output", "o", "", "metadata image to write")
	unpackCmd.MarkFlagRequired("input")
	unpackCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(unpackCmd)
}
