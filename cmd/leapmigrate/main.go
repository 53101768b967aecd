// Command leapmigrate migrates legacy SQL between dialects.
package main

import (
	"os"

	"github.com/leapstack-labs/leapmigrate/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
