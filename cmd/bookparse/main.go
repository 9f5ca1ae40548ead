package main

import (
	"os"

	"github.com/aluiziolira/go-parse-books/cmd/bookparse/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
