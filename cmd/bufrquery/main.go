// Package main is the entry point for the bufrquery binary.
package main

import (
	"os"

	"github.com/rhoneyager-tomorrow/ioda-converters-1/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
