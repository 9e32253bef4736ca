package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the tradememory CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tradememory version %s\n", version)
		fmt.Println("A trade-memory and adaptive risk engine for discretionary trading agents")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
