package cmd

import (
	"fmt"
	"log"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/dynmesh/simulation"
)

var (
	runOpen    bool
	runMonitor bool
	runPort    int
	runRecord  string
)

var runCmd = &cobra.Command{
	Use:   "run <case.yaml>",
	Short: "Run a case.",
	Long: "`run <case.yaml>` moves the mesh of the case step by step and " +
		"lets the modifiers change it.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCase(args[0])
		if err != nil {
			return err
		}

		if runOpen || runMonitor {
			c.Run.Monitor = true
		}

		if runPort != 0 {
			c.Run.MonitorPort = runPort
		}

		if runRecord != "" {
			c.Run.Record = runRecord
		}

		s, err := simulation.MakeBuilder().
			WithCase(c).
			WithLogger(log.New(cmd.ErrOrStderr(), "", log.LstdFlags)).
			Build()
		if err != nil {
			return err
		}
		defer s.Terminate()

		if runOpen {
			err = browser.OpenURL(s.GetMonitor().URL())
			if err != nil {
				log.Printf("cannot open the monitor: %v", err)
			}
		}

		err = s.Run()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"Finished %d steps, %d cells, piston at %g\n",
			s.Piston().Step(), s.Mesh().NCells(), s.Piston().Position())

		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runOpen, "open", false,
		"open the monitor in a browser")
	runCmd.Flags().BoolVar(&runMonitor, "monitor", false,
		"serve the monitor while running")
	runCmd.Flags().IntVar(&runPort, "port", 0,
		"port of the monitor")
	runCmd.Flags().StringVar(&runRecord, "record", "",
		"record the run into the given file, without the .sqlite3 suffix")
}
