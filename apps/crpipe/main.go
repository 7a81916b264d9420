package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/astrokit/crpipe/apps/crpipe/cmd"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "crpipe crashed: %v\n", r)
			if os.Getenv("CRPIPE_DEBUG") != "" {
				debug.PrintStack()
			}
			os.Exit(2)
		}
	}()

	cmd.Execute()
}
