package main

import (
	"os"

	"github.com/limaJavier/exam-timetabling/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
