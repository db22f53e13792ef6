// Command admin runs maintenance tasks against the siteboard database:
// importance recomputation, Google syncs, leaderboard reports and API
// tokens.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
