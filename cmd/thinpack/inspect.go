package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dmtools/thinpack/internal/pack"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "report which runs of a device hold each kind of metadata block",
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		format, _ := cmd.Flags().GetString("format")

		rep, err := pack.Inspect(cmd.Context(), input, options())
		if err != nil {
			return err
		}

		switch format {
		case "yaml":
			out, err := yaml.Marshal(rep)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(out)
			return err
		case "text":
			fmt.Print(rep.Text())
			return nil
		default:
			return fmt.Errorf("unknown format %q (want text or yaml)", format)
		}
	},
}

func init() {
	inspectCmd.Flags().StringP("input", "i", "", "metadata device or file to inspect")
	inspectCmd.Flags().String("format", "text", "output format: text or yaml")
	inspectCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(inspectCmd)
}
