// Command contactctl works with the EEEFLIX contact store from a terminal:
// the interactive Contact Manager, the single-student edit form, seeding a
// fresh store and validating a store file.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
