// Command oramctl drives throughput, latency, and mixed-workload
// benchmarks against the pathoram package. It is deliberately kept
// outside pathoram's own import graph: the core library takes no
// config beyond its constructor arguments, and never depends on this
// CLI or anything it imports.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
