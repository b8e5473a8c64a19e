// Command kcwrap confirms the Kubernetes context before running cluster tools.
package main

import (
	"os"

	"github.com/Dicklesworthstone/kcwrap/internal/cli"
)

func main() {
	os.Exit(cli.ExitCode(cli.Execute(), os.Stderr))
}
