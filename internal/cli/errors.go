package cli

import (
	"fmt"
	"os"

	boarderrors "github.com/randalmurphal/taskboard/internal/errors"
)

// PrintError prints an error to stderr. Board errors use their user-facing
// form; verbose mode adds the code, details and cause.
func PrintError(err error) {
	if be := boarderrors.AsBoardError(err); be != nil {
		fmt.Fprintln(os.Stderr, be.UserMessage())
		if verbose {
			fmt.Fprintf(os.Stderr, "\nCode: %s\n", be.Code)
			for k, v := range be.Details {
				fmt.Fprintf(os.Stderr, "  %s: %v\n", k, v)
			}
			if be.Cause != nil {
				fmt.Fprintf(os.Stderr, "Cause: %v\n", be.Cause)
			}
		}
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
