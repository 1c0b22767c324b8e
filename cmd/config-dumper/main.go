// Command config-dumper prints the configuration records stored in artio files.
package main

import (
	"fmt"
	"os"

	"github.com/arloliu/artio/internal/cli"
)

func main() {
	if err := cli.NewConfigDumperCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "config-dumper:", err)
		os.Exit(1)
	}
}
