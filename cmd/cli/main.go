package main

import (
	"os"

	"github.com/drimsoft/planifika-admin/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
