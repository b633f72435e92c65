package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/dynmesh/datarecording"
)

var reportLimit int

var reportCmd = &cobra.Command{
	Use:   "report <recording.sqlite3>",
	Short: "Print a recorded run.",
	Long: "`report <recording.sqlite3>` prints the run information, the " +
		"layer triggers and the mesh changes of a recording.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := datarecording.OpenRecording(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		out := cmd.OutOrStdout()
		params := datarecording.QueryParams{
			OrderBy: "Step",
			Limit:   reportLimit,
		}

		err = reportExecInfo(cmd, r, out)
		if err != nil {
			return err
		}

		triggers, total, err := r.Query(cmd.Context(),
			datarecording.LayerTriggerTable, params)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "triggers: %d\n", total)
		for _, row := range triggers {
			t := row.(*datarecording.LayerTrigger)
			fmt.Fprintf(out, "  step %d %s: %s %s", t.Step, t.Modifier,
				t.Kind, t.Event)
			if t.Reason != "" {
				fmt.Fprintf(out, " (%s)", t.Reason)
			}
			fmt.Fprintln(out)
		}

		changes, total, err := r.Query(cmd.Context(),
			datarecording.MeshChangeTable, params)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "mesh changes: %d\n", total)
		for _, row := range changes {
			c := row.(*datarecording.MeshChange)
			fmt.Fprintf(out, "  step %d: %d cells (+%d -%d), %d points\n",
				c.Step, c.NCells, c.AddedCells, c.RemovedCells, c.NPoints)
		}

		return nil
	},
}

func reportExecInfo(
	cmd *cobra.Command,
	r datarecording.DataReader,
	out io.Writer,
) error {
	rows, _, err := r.Query(cmd.Context(), datarecording.ExecInfoTable,
		datarecording.QueryParams{})
	if err != nil {
		return err
	}

	for _, row := range rows {
		info := row.(*datarecording.ExecInfo)
		fmt.Fprintf(out, "%s: %s\n", info.Property, info.Value)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().IntVar(&reportLimit, "limit", 0,
		"print at most this many rows per table, 0 prints all")
}
