// Command forgectl is the Forge platform client. It drives iterative,
// schema-validated generation of platform configuration documents through a
// language-model backend.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
