// Package main provides the plot_training_comparison CLI entrypoint.
package main

import (
	"os"

	"github.com/verte-zerg/trainplot/internal/cli"
)

func main() {
	os.Exit(cli.Execute(cli.NewCompareCmd()))
}
