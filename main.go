// The smartcharge binary runs the price-aware EV charge controller.
package main

import (
	"os"

	"github.com/voltlab/smartcharge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
