// Package cmd provides the command-line interface of dynmesh.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/dynmesh/config"
)

var envFiles []string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "dynmesh",
	Short: "dynmesh moves meshes and adds or removes cell layers next to " +
		"moving boundaries.",
	Long: `dynmesh runs moving-piston cases described in YAML case files. ` +
		`Layer addition/removal modifiers watch the cells next to a face ` +
		`zone and change the mesh topology when the layer gets too thin or ` +
		`too thick.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env",
		[]string{".env"}, "files with DYNMESH_ variables to load")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func loadCase(path string) (*config.Case, error) {
	return config.Load(path, envFiles...)
}
