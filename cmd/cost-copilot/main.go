package main

import (
	"fmt"
	"os"

	"github.com/nawuni/aws-cost-copilot-go/internal/adapter/driving/cli"
	"github.com/nawuni/aws-cost-copilot-go/pkg/version"
)

func main() {
	app := cli.NewCLIApp(version.Version)

	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
