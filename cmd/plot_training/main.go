// Package main provides the plot_training CLI entrypoint.
package main

import (
	"os"

	"github.com/verte-zerg/trainplot/internal/cli"
)

func main() {
	os.Exit(cli.Execute(cli.NewPlotCmd()))
}
