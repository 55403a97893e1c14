package main

import (
	"os"

	"github.com/abhisek/mathverify/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
