package main

import (
	"fmt"
	"os"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/cmd"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataerr"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", dataerr.Category(err), err)
		os.Exit(dataerr.ExitCode(err))
	}
}
