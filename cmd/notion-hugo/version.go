// The version subcommand.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overridable at link time.
var version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("notion-hugo v%s\n", version)
	},
}
