// Command waflora runs the Wa Flora customer credit ledger.
package main

import "github.com/waflora/waflora/internal/cli"

func main() {
	cli.Execute()
}
