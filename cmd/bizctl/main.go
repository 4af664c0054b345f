// bizctl is an operator tool for password hashes and session tokens.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "bizctl:", err)
		os.Exit(1)
	}
}
