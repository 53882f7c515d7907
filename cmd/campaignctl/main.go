// Command campaignctl is a command line client of the campaign backend.
package main

import (
	"os"

	"github.com/goliatone/go-campaign-client/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
