// Command spuff provisions, connects to, and tears down ephemeral cloud
// development environments.
package main

import (
	"os"

	"spuff/internal/cli"
)

func main() {
	os.Exit(cli.Main(os.Args[1:]))
}
