// Command file-info-dumper prints the bookkeeping records of artio files.
package main

import (
	"fmt"
	"os"

	"github.com/arloliu/artio/internal/cli"
)

func main() {
	if err := cli.NewFileInfoDumperCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "file-info-dumper:", err)
		os.Exit(1)
	}
}
