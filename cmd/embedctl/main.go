// Command embedctl extracts embedded-asset metadata for a URL and prints the
// accessor views the service exposes, without a database.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
