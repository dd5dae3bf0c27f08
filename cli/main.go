// Command mediaguard blocks media files that would leak a location when
// published, and lists the metadata of files it blocks.
package main

import (
	"errors"
	"fmt"
	"os"
)

var version = "dev" // set by the linker

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errBlocked) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
