package main

import (
	"os"

	"github.com/bimmerbailey/grasp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
