package main

import (
	"os"

	"github.com/oasgraph/oasgraph/cmd/oasgraph/commands"
)

func main() {
	os.Exit(commands.Execute())
}
