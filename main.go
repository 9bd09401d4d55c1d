package main

import (
	"os"

	"github.com/sec-view/DataLens/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
