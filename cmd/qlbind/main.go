// Command qlbind builds schema catalogs from CUE declarations and resolves
// function calls against them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/qlbind/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
