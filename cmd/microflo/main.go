// Command microflo loads flow-based programs and runs them on a simulated
// microcontroller board.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/microflo/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "microflo:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
