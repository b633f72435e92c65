package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/dynmesh/simulation"
)

var dictFormat string

var dictCmd = &cobra.Command{
	Use:   "dict <case.yaml>",
	Short: "Print the modifiers of a case.",
	Long: "`dict <case.yaml>` prints every modifier of the case as a " +
		"record, as a keyword dictionary, or both.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if dictFormat != "record" && dictFormat != "dict" &&
			dictFormat != "both" {
			return fmt.Errorf("unknown format %s, "+
				"use record, dict or both", dictFormat)
		}

		c, err := loadCase(args[0])
		if err != nil {
			return err
		}

		s, err := simulation.MakeBuilder().
			WithCase(c).
			WithoutMonitoring().
			WithoutRecording().
			Build()
		if err != nil {
			return err
		}
		defer s.Terminate()

		out := cmd.OutOrStdout()

		for _, mod := range s.Modifiers() {
			if dictFormat != "dict" {
				err = mod.Write(out)
				if err != nil {
					return err
				}
			}

			if dictFormat != "record" {
				err = mod.WriteDict(out)
				if err != nil {
					return err
				}
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dictCmd)
	dictCmd.Flags().StringVar(&dictFormat, "format", "both",
		"record, dict or both")
}
