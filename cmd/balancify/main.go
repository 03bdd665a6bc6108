// Command balancify analyzes a questionnaire file offline and runs what-if
// simulations on it, printing JSON.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
