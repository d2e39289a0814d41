// Command policyai answers questions about a health-insurance policy
// document. It provides a CLI (via Cobra) and an HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/54b3r/policyai-go/cmd/policyai/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
