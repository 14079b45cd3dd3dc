// Command stackasm inspects and reassembles code units stored as JSON.
package main

import (
	"fmt"
	"os"
)

var (
	Version = "dev"
	Commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
