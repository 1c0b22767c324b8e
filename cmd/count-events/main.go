// Command count-events counts the runs, subruns, events and results of artio files.
package main

import (
	"fmt"
	"os"

	"github.com/arloliu/artio/internal/cli"
)

func main() {
	if err := cli.NewCountEventsCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "count-events:", err)
		os.Exit(1)
	}
}
