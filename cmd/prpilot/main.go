// PRPilot - AI pull request automation.
//
// Label a PR, get an AI review or generated tests committed back to the
// branch.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "prpilot",
	Short: "PRPilot - AI pull request automation",
	Long: `PRPilot reviews pull requests and generates tests for them.

  prpilot serve    Start the webhook server

Open a PR or apply the ready-for-review label for an AI review;
apply the ready-for-tests label to get tests committed to the branch.`,
	Version: version,
}

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("PRPILOT_LOG_PRETTY") != "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if os.Getenv("PRPILOT_DEBUG") != "" {
		log.Logger = log.Level(zerolog.DebugLevel)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
