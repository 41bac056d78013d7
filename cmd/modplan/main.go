package main

import (
	"fmt"
	"os"

	"modplan/internal/errors"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		for _, fix := range errors.SuggestedFixes(errors.CodeOf(err)) {
			fmt.Fprintf(os.Stderr, "  hint: %s\n", fix.Description)
		}
		os.Exit(1)
	}
}
