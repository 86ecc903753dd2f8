package main

import (
	"os"

	"github.com/spigell/star-interviewer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
