// Command scorectl evaluates scoring formulas and computes leaderboards
// from YAML fixtures without a database.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
