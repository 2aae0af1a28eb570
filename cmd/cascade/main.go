// Command cascade runs demonstration graphs built with the cascade package.
package main

import (
	"os"
)

func main() {
	rootCmd := NewRootCommand()
	rootCmd.AddCommand(NewDemoCommand())
	rootCmd.AddCommand(NewBenchCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
