package main

import (
	"os"

	"paper-trader/cmd/portfolio/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
