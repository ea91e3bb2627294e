// Command easypos runs and administers a restaurant point-of-sale terminal.
package main

import (
	"fmt"
	"os"

	"github.com/azairamail/EASYAiPOS/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
