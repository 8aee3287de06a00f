package main

import (
	"fmt"
	"os"

	"github.com/interpretive-systems/prdiff/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "prdiff:", err)
		os.Exit(1)
	}
}
