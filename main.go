package main

import (
	"os"

	"github.com/rogersnm/errand/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
