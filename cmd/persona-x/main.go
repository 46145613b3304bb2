// Command persona-x runs judgement-persona panels and the four-stage
// decision engine.
package main

import (
	"os"

	"github.com/victorycross/persona-x-sub000/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
