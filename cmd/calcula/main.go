package main

import (
	"os"

	"github.com/DanielSallander/Calcula-sub003/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
