// The main package for the mcp-polygon executable.
package main

import (
	"github.com/marketdesk/mcp-polygon/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
