// Command deliveryctl checks delivery catalogs and answers fee and slot
// questions offline, against the same engine the server runs.
package main

import (
	"fmt"
	"os"
	_ "time/tzdata"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
