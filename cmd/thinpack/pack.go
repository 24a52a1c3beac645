package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dmtools/thinpack/internal/pack"
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "compress the metadata blocks of a device into a pack stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")

		res, err := pack.Pack(cmd.Context(), input, output, options())
		if err != nil {
			return err
		}

		log.Info().
			Uint64("nr_blocks", res.NrBlocks).
			Uint64("metadata_blocks", res.Blocks.Size()).
			Str("runs", res.Blocks.Coalesced().String()).
			Msg("packed")
		return nil
	},
}

func init() {
	packCmd.Flags().StringP("input", "i", "", "metadata device or file to pack")
	packCmd.Flags().StringP("output", "o", "", "pack stream to write")
	packCmd.MarkFlagRequired("input")
	packCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(packCmd)
}
