package main

import (
	"os"

	"github.com/Yagna-Patil/Battery-Simulator/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
