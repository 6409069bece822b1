// Command stowlog keeps a local log of items and where they are stored.
package main

import "github.com/mesh-intelligence/stowlog/internal/cli"

func main() {
	cli.Execute()
}
