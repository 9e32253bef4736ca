package main

import (
	"os"

	"tradememory/cmd/tradememory/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
