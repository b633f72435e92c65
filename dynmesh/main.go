// Command dynmesh runs moving-mesh cases with layer addition and removal.
package main

import (
	"github.com/tebeka/atexit"

	"github.com/sarchlab/dynmesh/dynmesh/cmd"
)

func main() {
	err := cmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
