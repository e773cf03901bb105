package main

import (
	"os"

	"github.com/issuestats/issuestats/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
