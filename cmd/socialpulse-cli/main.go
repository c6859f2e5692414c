// Command socialpulse-cli runs one scrape in-process and prints the result
// as JSON, without going through the HTTP API.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
