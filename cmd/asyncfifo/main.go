// Command asyncfifo simulates and verifies a dual-clock async queue.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/asyncfifo/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
