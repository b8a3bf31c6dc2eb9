// Command covidmap draws daily NSW COVID-19 case counts per local
// government area as choropleth frames and assembles them into an
// animated GIF.
//
// Usage:
//
//	covidmap run       # fetch, aggregate, render and assemble once
//	covidmap serve     # run once, then serve the outputs over HTTP
//	covidmap assemble  # rebuild the animation from existing frames
//	covidmap validate  # check boundary, classification and vaccination inputs
//
// All settings come from environment variables; see internal/config.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "covidmap",
	Short: "Animated choropleth of NSW COVID-19 cases by LGA",
	Long: "covidmap fetches NSW COVID-19 case notifications, counts them per day and\n" +
		"local government area, and renders one map per day into an animated GIF.",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(assembleCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
