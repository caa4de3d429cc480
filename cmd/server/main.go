// Command scry-study serves the study scheduling API and runs its
// maintenance tasks: migrations, catalog imports and lifecycle reconciliation.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
