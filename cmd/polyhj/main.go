package main

import (
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/cmuq-ccl/polyhj/cmd/polyhj/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
