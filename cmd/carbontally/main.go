// Command carbontally computes embodied-carbon reports for classified
// building-element inventories.
package main

import (
	"os"

	"github.com/buildsense/carbontally/internal/cli"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		os.Exit(1)
	}
}
