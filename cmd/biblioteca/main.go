// Command biblioteca is a terminal client for the Biblioteca API. It keeps
// the session between runs and guards navigation the way the web front end
// does.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
