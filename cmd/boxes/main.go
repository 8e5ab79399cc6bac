package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Diagnostics have already been printed by the command.
		if !errors.Is(err, errProblems) {
			fmt.Fprintf(os.Stderr, "boxes: %v\n", err)
		}
		os.Exit(1)
	}
}
