package main

import (
	"fmt"
	"os"

	"github.com/focusmcp/focusmcp/cli"
	"github.com/focusmcp/focusmcp/cli/helpers"
)

func main() {
	cmd := cli.RootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(helpers.ExitCode(err))
	}
}
