// Command tilespace enumerates the reachable state space of a sliding-tile
// puzzle and prints the count.
package main

import (
	"os"
	"strings"

	"github.com/dcoats/tilespace/internal/cli"
)

func main() {
	environ := os.Environ()
	env := make(map[string]string, len(environ))

	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	os.Exit(cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, env))
}
