package main

import "github.com/mcoot/chessduel/internal/cli"

func main() {
	cli.Execute()
}
