package main

import (
	"os"

	"github.com/ikkim/dealer-backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
