package main

import (
	"fmt"
	"os"

	"github.com/zjy-dev/covalgebra/cmd/covalg/app"
)

func main() {
	if err := app.NewCovalgCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
