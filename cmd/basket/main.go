// Command basket mines frequent itemsets and association rules from retail
// transaction data.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/basket/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
