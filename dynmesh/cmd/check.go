package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/sarchlab/dynmesh/layering"
	"github.com/sarchlab/dynmesh/simulation"
)

var checkCmd = &cobra.Command{
	Use:   "check <case.yaml>",
	Short: "Check a case.",
	Long: "`check <case.yaml>` builds the mesh and the modifiers of the " +
		"case and reports configuration errors.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		m := s.Mesh()

		fmt.Fprintf(out, "mesh: %d points, %d faces, %d cells, "+
			"volume %g\n", m.NPoints(), m.NFaces(), m.NCells(),
			floats.Sum(m.CellVolumes()))
		fmt.Fprintf(out, "steps: %d\n", s.Piston().NumSteps())

		for _, mod := range s.Modifiers() {
			fmt.Fprintf(out, "modifier %s: %s", mod.Name(), mod.Type())

			if l, ok := mod.(*layering.Comp); ok {
				fmt.Fprintf(out, ", zone %s, thickness %g to %g",
					l.FaceZoneName(),
					l.MinLayerThickness(), l.MaxLayerThickness())
			}

			if !mod.Active() {
				fmt.Fprint(out, ", inactive")
			}

			fmt.Fprintln(out)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
