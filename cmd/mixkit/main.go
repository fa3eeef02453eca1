package main

import (
	"os"

	"github.com/ctoth/mixkit/internal/cli"
)

func main() {
	c := cli.NewCLI()
	os.Exit(c.Run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}
